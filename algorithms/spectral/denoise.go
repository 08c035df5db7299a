package spectral

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptySpectrogram is returned when a matrix has no bins or no segments.
var ErrEmptySpectrogram = errors.New("empty spectrogram")

// Spectral subtraction defaults
const (
	DefaultDenoiseAlpha  = 4.0
	DefaultNoiseSegments = 10
	DefaultPowerFloor    = 1e-10
)

// DenoiseConfig controls stationary-noise spectral subtraction.
type DenoiseConfig struct {
	Alpha         float64 `json:"alpha"`          // Over-subtraction factor
	NoiseSegments int     `json:"noise_segments"` // Leading segments assumed to be noise only
	Floor         float64 `json:"floor"`          // Replacement for non-positive results
}

// DefaultDenoiseConfig returns alpha 4, a 10-segment noise window and a 1e-10 floor
func DefaultDenoiseConfig() DenoiseConfig {
	return DenoiseConfig{
		Alpha:         DefaultDenoiseAlpha,
		NoiseSegments: DefaultNoiseSegments,
		Floor:         DefaultPowerFloor,
	}
}

// Validate checks the denoise parameters
func (c DenoiseConfig) Validate() error {
	if c.Alpha < 0 {
		return fmt.Errorf("denoise alpha must be non-negative, got %g", c.Alpha)
	}
	if c.NoiseSegments < 1 {
		return fmt.Errorf("noise segments must be at least 1, got %d", c.NoiseSegments)
	}
	if !(c.Floor > 0) {
		return fmt.Errorf("power floor must be positive, got %g", c.Floor)
	}
	return nil
}

// NoiseFloor estimates the per-bin noise power as the mean of the first
// segments columns of a frequency-major power matrix. Fewer columns than
// requested means all of them are used.
func NoiseFloor(power [][]float64, segments int) []float64 {
	floor := make([]float64, len(power))
	for f, row := range power {
		n := min(segments, len(row))
		if n <= 0 {
			continue
		}
		floor[f] = stat.Mean(row[:n], nil)
	}
	return floor
}

// SpectralSubtraction removes a stationary noise estimate from every segment.
//
// The noise floor comes from the leading NoiseSegments segments, so this only
// works when the recording starts with background noise (silence, lead-in).
// Each cell becomes power - Alpha*noise; anything <= 0 is replaced by Floor so
// the result stays strictly positive. The input matrix is left untouched.
func SpectralSubtraction(power [][]float64, config DenoiseConfig) ([][]float64, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(power) == 0 || len(power[0]) == 0 {
		return nil, ErrEmptySpectrogram
	}

	noise := NoiseFloor(power, config.NoiseSegments)

	out := make([][]float64, len(power))
	for f, row := range power {
		subtracted := make([]float64, len(row))
		offset := config.Alpha * noise[f]
		for t, p := range row {
			v := p - offset
			if v <= 0 {
				v = config.Floor
			}
			subtracted[t] = v
		}
		out[f] = subtracted
	}

	return out, nil
}
