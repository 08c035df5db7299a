package filters

import (
	"math"
	"math/cmplx"
)

// FrequencyResponse computes the magnitude (linear) and phase (radians) of the
// polynomial form at the given frequency.
//
// H(e^jw) = sum(b[k]*e^-jwk) / sum(a[k]*e^-jwk)
func (c *Coefficients) FrequencyResponse(frequency float64, sampleRate int) (magnitude, phase float64) {
	w := 2.0 * math.Pi * frequency / float64(sampleRate)
	h := evalPoly(c.B, w) / evalPoly(c.A, w)
	return cmplx.Abs(h), cmplx.Phase(h)
}

// SectionsResponse computes the magnitude and phase of the second-order
// section cascade at the given frequency.
func (c *Coefficients) SectionsResponse(frequency float64, sampleRate int) (magnitude, phase float64) {
	w := 2.0 * math.Pi * frequency / float64(sampleRate)
	h := complex(1, 0)
	for _, s := range c.Sections {
		h *= evalPoly([]float64{s.B0, s.B1, s.B2}, w) / evalPoly([]float64{1, s.A1, s.A2}, w)
	}
	return cmplx.Abs(h), cmplx.Phase(h)
}

// evalPoly evaluates sum(p[k]*e^-jwk) with Horner's rule in e^-jw.
func evalPoly(p []float64, w float64) complex128 {
	zinv := cmplx.Exp(complex(0, -w))
	acc := complex(0, 0)
	for k := len(p) - 1; k >= 0; k-- {
		acc = acc*zinv + complex(p[k], 0)
	}
	return acc
}

// Stable reports whether every second-order section has its poles strictly
// inside the unit circle (the stability triangle |a2| < 1, |a1| < 1 + a2).
func (c *Coefficients) Stable() bool {
	if len(c.Sections) == 0 {
		return false
	}
	for _, s := range c.Sections {
		if !(math.Abs(s.A2) < 1) || !(math.Abs(s.A1) < 1+s.A2) {
			return false
		}
	}
	return true
}
