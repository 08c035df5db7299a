package windowing

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrUnknownWindow is returned by New for an unsupported window name.
var ErrUnknownWindow = errors.New("unknown window type")

// Window is a fixed-length tapering window.
type Window interface {
	// Apply returns a windowed copy of signal, or nil on a length mismatch
	Apply(signal []float64) []float64
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() string
}

// Config selects a window by name.
type Config struct {
	Type string `json:"type"` // "tukey", "hann", "hamming", "blackman", "rectangular"

	// Alpha is the Tukey taper fraction (0 = rectangular, 1 = Hann)
	Alpha float64 `json:"alpha,omitempty"`

	// Symmetric windows are meant for filter design; spectral analysis uses
	// the periodic variant (one sample longer, last sample dropped).
	Symmetric bool `json:"symmetric,omitempty"`
}

// DefaultConfig returns the periodic Tukey window with a 25% taper.
func DefaultConfig() Config {
	return Config{
		Type:  "tukey",
		Alpha: 0.25,
	}
}

// New builds the configured window with the given size.
func New(cfg Config, size int) (Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch strings.ToLower(cfg.Type) {
	case "tukey", "":
		if cfg.Alpha < 0 || cfg.Alpha > 1 {
			return nil, fmt.Errorf("tukey alpha must be in [0, 1], got %g", cfg.Alpha)
		}
		return NewTukey(size, cfg.Alpha, cfg.Symmetric), nil
	case "hann", "hanning":
		return NewHann(size, cfg.Symmetric), nil
	case "hamming":
		return NewHamming(size, cfg.Symmetric), nil
	case "blackman":
		return NewBlackman(size, cfg.Symmetric), nil
	case "rectangular", "boxcar":
		return NewRectangular(size), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWindow, cfg.Type)
	}
}

// Sum returns the sum of the window coefficients (coherent gain * size).
func Sum(w Window) float64 {
	return floats.Sum(w.GetCoefficients())
}

// SumSquares returns the sum of squared coefficients (window energy).
func SumSquares(w Window) float64 {
	c := w.GetCoefficients()
	return floats.Dot(c, c)
}

// table holds precomputed coefficients and implements the shared parts of Window.
type table struct {
	kind         string
	coefficients []float64
}

func (t *table) Apply(signal []float64) []float64 {
	if len(signal) != len(t.coefficients) {
		return nil
	}

	windowed := make([]float64, len(signal))
	floats.MulTo(windowed, signal, t.coefficients)
	return windowed
}

func (t *table) ApplyInPlace(signal []float64) error {
	if len(signal) != len(t.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(t.coefficients))
	}

	floats.Mul(signal, t.coefficients)
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (t *table) GetCoefficients() []float64 {
	coeffs := make([]float64, len(t.coefficients))
	copy(coeffs, t.coefficients)
	return coeffs
}

func (t *table) GetSize() int {
	return len(t.coefficients)
}

func (t *table) GetType() string {
	return t.kind
}

// generalizedLength returns the length the window formula is evaluated over.
// Periodic windows are computed one sample longer and truncated.
func generalizedLength(size int, symmetric bool) int {
	if symmetric {
		return size
	}
	return size + 1
}
