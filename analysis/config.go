package analysis

import (
	"fmt"

	"github.com/RyanBlaney/sonido-scope/algorithms/filters"
	"github.com/RyanBlaney/sonido-scope/algorithms/spectral"
)

// FilterConfig describes the Butterworth bandpass applied before analysis
type FilterConfig struct {
	LowCutHz  float64 `json:"low_cut_hz"`
	HighCutHz float64 `json:"high_cut_hz"`
	Order     int     `json:"order"`
}

// Config holds every tunable of the analysis pipeline
type Config struct {
	Filter      FilterConfig               `json:"filter"`
	Spectrogram spectral.SpectrogramConfig `json:"spectrogram"`
	Denoise     spectral.DenoiseConfig     `json:"denoise"`

	// DecibelFloor is added to power before the logarithm
	DecibelFloor float64 `json:"decibel_floor"`

	// DesignCacheSize bounds the memoized filter designs; 0 disables caching
	DesignCacheSize int `json:"design_cache_size"`
}

// DefaultConfig returns the telephone-band analysis setup: 300-3400 Hz,
// order 5, 256-sample segments with 128 overlap, alpha 4 subtraction and a
// 1e-10 floor.
func DefaultConfig() Config {
	return Config{
		Filter: FilterConfig{
			LowCutHz:  filters.DefaultLowCutHz,
			HighCutHz: filters.DefaultHighCutHz,
			Order:     filters.DefaultOrder,
		},
		Spectrogram:     spectral.DefaultSpectrogramConfig(),
		Denoise:         spectral.DefaultDenoiseConfig(),
		DecibelFloor:    spectral.DefaultPowerFloor,
		DesignCacheSize: filters.DefaultDesignCacheSize,
	}
}

// Validate checks everything that does not depend on the sample rate
func (c Config) Validate() error {
	if !(c.Filter.LowCutHz > 0) || !(c.Filter.HighCutHz > c.Filter.LowCutHz) {
		return fmt.Errorf("filter band must satisfy 0 < low < high, got %g-%g Hz", c.Filter.LowCutHz, c.Filter.HighCutHz)
	}
	if c.Filter.Order < 1 {
		return fmt.Errorf("filter order must be at least 1, got %d", c.Filter.Order)
	}
	if err := c.Spectrogram.Validate(); err != nil {
		return err
	}
	if err := c.Denoise.Validate(); err != nil {
		return err
	}
	if !(c.DecibelFloor > 0) {
		return fmt.Errorf("decibel floor must be positive, got %g", c.DecibelFloor)
	}
	if c.DesignCacheSize < 0 {
		return fmt.Errorf("design cache size must be non-negative, got %d", c.DesignCacheSize)
	}
	return nil
}
