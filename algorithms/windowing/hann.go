package windowing

import (
	"math"
)

// Hann is the raised cosine window.
type Hann struct {
	table
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	return &Hann{table: table{kind: "hann", coefficients: cosineSum(size, symmetric, 0.5, 0.5)}}
}

// cosineSum evaluates sum_k (-1)^k * a[k] * cos(2*pi*k*n/(M-1)) over the
// generalized length and truncates to size.
func cosineSum(size int, symmetric bool, a ...float64) []float64 {
	if size <= 0 {
		return []float64{}
	}

	m := generalizedLength(size, symmetric)
	coeffs := make([]float64, m)

	if m == 1 {
		return []float64{1}
	}

	denominator := float64(m - 1)
	for n := range m {
		arg := 2 * math.Pi * float64(n) / denominator
		sign := 1.0
		for k, ak := range a {
			coeffs[n] += sign * ak * math.Cos(float64(k)*arg)
			sign = -sign
		}
	}

	return coeffs[:size]
}
