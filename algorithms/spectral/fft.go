package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the mjibson/go-dsp transforms used by the spectrogram engine.
// It holds no state and is safe for concurrent use.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the full complex spectrum of a real signal.
// go-dsp handles any length, including non-powers of two.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFTReal(x)
}

// PowerOneSided returns |X[k]|^2 for the non-negative frequency bins
// 0..len(x)/2 of a real signal.
func (f *FFT) PowerOneSided(x []float64) []float64 {
	spectrum := f.Compute(x)
	bins := len(x)/2 + 1
	if len(spectrum) < bins {
		bins = len(spectrum)
	}

	power := make([]float64, bins)
	for k := range bins {
		re, im := real(spectrum[k]), imag(spectrum[k])
		power[k] = re*re + im*im
	}
	return power
}
