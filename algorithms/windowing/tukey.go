package windowing

import (
	"math"
)

// Tukey is a tapered cosine window: flat in the middle with cosine tapers
// covering alpha/2 of each side.
type Tukey struct {
	table
	alpha float64
}

// NewTukey creates a new Tukey window.
// alpha <= 0 degenerates to a rectangular window, alpha >= 1 to Hann.
func NewTukey(size int, alpha float64, symmetric bool) *Tukey {
	t := &Tukey{
		table: table{kind: "tukey"},
		alpha: alpha,
	}
	t.generate(size, symmetric)
	return t
}

func (t *Tukey) generate(size int, symmetric bool) {
	if t.alpha <= 0 {
		t.coefficients = NewRectangular(size).coefficients
		return
	}
	if t.alpha >= 1 {
		t.coefficients = NewHann(size, symmetric).coefficients
		return
	}

	if size <= 1 {
		t.coefficients = NewRectangular(size).coefficients
		return
	}

	m := generalizedLength(size, symmetric)
	full := make([]float64, m)

	span := float64(m - 1)
	width := int(math.Floor(t.alpha * span / 2))

	for n := range m {
		x := float64(n)
		switch {
		case n <= width:
			// Rising taper
			full[n] = 0.5 * (1 + math.Cos(math.Pi*(-1+2*x/t.alpha/span)))
		case n >= m-width-1:
			// Falling taper
			full[n] = 0.5 * (1 + math.Cos(math.Pi*(-2/t.alpha+1+2*x/t.alpha/span)))
		default:
			full[n] = 1.0
		}
	}

	t.coefficients = full[:size]
}

// GetAlpha returns the Tukey alpha parameter
func (t *Tukey) GetAlpha() float64 {
	return t.alpha
}
