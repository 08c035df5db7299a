package common

import (
	"math"
)

// NormalizationType defines normalization method
type NormalizationType int

const (
	// Peak scales to unit peak absolute amplitude
	Peak NormalizationType = iota
	// RMSNorm scales to unit root mean square
	RMSNorm
)

// Normalizer provides signal normalization methods
type Normalizer struct {
	method NormalizationType
}

// NewNormalizer creates a new normalizer
func NewNormalizer(method NormalizationType) *Normalizer {
	return &Normalizer{
		method: method,
	}
}

// Normalize normalizes signal using the specified method.
// The result never aliases the input.
func (n *Normalizer) Normalize(signal []float64) []float64 {
	switch n.method {
	case RMSNorm:
		return RMSNormalize(signal)
	default:
		return PeakNormalize(signal)
	}
}

// PeakNormalize rescales the signal so that max(|x|) == 1.
//
// A signal that is exactly zero everywhere (or empty) is returned unchanged,
// as a copy, instead of dividing by zero.
func PeakNormalize(signal []float64) []float64 {
	return scaleBy(signal, MaxAbs(signal))
}

// RMSNormalize rescales the signal to unit RMS, leaving silent input unchanged.
func RMSNormalize(signal []float64) []float64 {
	return scaleBy(signal, RMS(signal))
}

func scaleBy(signal []float64, divisor float64) []float64 {
	out := make([]float64, len(signal))
	copy(out, signal)

	if divisor == 0 || math.IsNaN(divisor) || math.IsInf(divisor, 0) {
		return out
	}

	for i := range out {
		out[i] /= divisor
	}
	return out
}
