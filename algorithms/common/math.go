package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// MaxAbs returns the largest absolute value (the L-infinity norm)
func MaxAbs(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, math.Inf(1))
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// ArgMax returns the index of the largest value, or -1 for empty input
func ArgMax(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MaxIdx(data)
}

// AllFinite reports whether no value is NaN or infinite
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Arange returns n values start, start+step, start+2*step, ...
func Arange(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
