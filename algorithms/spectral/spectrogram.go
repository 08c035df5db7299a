package spectral

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/algorithms/windowing"
	"github.com/RyanBlaney/sonido-scope/logging"
)

var (
	// ErrEmptySignal is returned for a zero-length input.
	ErrEmptySignal = errors.New("empty signal")

	// ErrSignalTooShort is returned when the signal cannot fill a single segment.
	// Short signals are rejected rather than zero-padded.
	ErrSignalTooShort = errors.New("signal shorter than one segment")

	// ErrInvalidConfig is returned for inconsistent segment parameters.
	ErrInvalidConfig = errors.New("invalid spectrogram configuration")
)

// Scaling modes for the power spectrogram
const (
	// ScalingDensity yields a power spectral density in V^2/Hz
	ScalingDensity = "density"
	// ScalingSpectrum yields a power spectrum in V^2
	ScalingSpectrum = "spectrum"
)

// Default segmentation
const (
	DefaultSegmentLength = 256
	DefaultOverlap       = 128
)

// SpectrogramConfig controls segmentation, windowing and scaling.
type SpectrogramConfig struct {
	SegmentLength int              `json:"segment_length"`
	Overlap       int              `json:"overlap"`
	Window        windowing.Config `json:"window"`
	Detrend       bool             `json:"detrend"` // Subtract each segment's mean before windowing
	Scaling       string           `json:"scaling"` // "density" or "spectrum"
}

// DefaultSpectrogramConfig returns 256-sample segments with 50% overlap, a
// periodic Tukey(0.25) window, constant detrending and density scaling.
func DefaultSpectrogramConfig() SpectrogramConfig {
	return SpectrogramConfig{
		SegmentLength: DefaultSegmentLength,
		Overlap:       DefaultOverlap,
		Window:        windowing.DefaultConfig(),
		Detrend:       true,
		Scaling:       ScalingDensity,
	}
}

// Validate checks the segmentation parameters
func (c SpectrogramConfig) Validate() error {
	if c.SegmentLength < 2 {
		return fmt.Errorf("%w: segment length must be at least 2, got %d", ErrInvalidConfig, c.SegmentLength)
	}
	if c.Overlap < 0 || c.Overlap >= c.SegmentLength {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, c.SegmentLength, c.Overlap)
	}
	if c.Scaling != ScalingDensity && c.Scaling != ScalingSpectrum {
		return fmt.Errorf("%w: unknown scaling %q", ErrInvalidConfig, c.Scaling)
	}
	return nil
}

// HopSize returns the distance in samples between segment starts
func (c SpectrogramConfig) HopSize() int {
	return c.SegmentLength - c.Overlap
}

// Segments returns the number of full segments that fit in n samples:
// floor((n - overlap) / hop).
func (c SpectrogramConfig) Segments(n int) int {
	if n < c.SegmentLength {
		return 0
	}
	return (n - c.Overlap) / c.HopSize()
}

// SpectrogramResult holds a one-sided power spectrogram.
type SpectrogramResult struct {
	Frequencies    []float64   `json:"frequencies"`     // Bin centre frequencies in Hz, ascending
	Times          []float64   `json:"times"`           // Segment centre times in seconds, ascending
	Power          [][]float64 `json:"power"`           // Frequency x Time power matrix
	FreqBins       int         `json:"freq_bins"`       // Number of frequency bins
	TimeSegments   int         `json:"time_segments"`   // Number of segments
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	SegmentLength  int         `json:"segment_length"`  // FFT size
	HopSize        int         `json:"hop_size"`        // Hop size between segments
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/segment)
}

// SpectrogramEngine computes power spectrograms with a fixed configuration.
// The window is built once; Compute keeps no state between calls and is safe
// for concurrent use.
type SpectrogramEngine struct {
	config SpectrogramConfig
	window windowing.Window
	fft    *FFT

	windowSum        float64
	windowSumSquares float64
}

// NewSpectrogramEngine validates the configuration and precomputes the window
func NewSpectrogramEngine(config SpectrogramConfig) (*SpectrogramEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	window, err := windowing.New(config.Window, config.SegmentLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &SpectrogramEngine{
		config:           config,
		window:           window,
		fft:              NewFFT(),
		windowSum:        windowing.Sum(window),
		windowSumSquares: windowing.SumSquares(window),
	}, nil
}

// Config returns the engine configuration
func (e *SpectrogramEngine) Config() SpectrogramConfig {
	return e.config
}

// Compute computes the power spectrogram of signal.
//
// Segment k covers samples [k*hop, k*hop+segment) and is reported at time
// (segment/2 + k*hop)/sampleRate. Frequency bin k is at k*sampleRate/segment.
func (e *SpectrogramEngine) Compute(signal []float64, sampleRate int) (*SpectrogramResult, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "spectrogram",
		"function":  "Compute",
	})

	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, sampleRate)
	}

	segLen := e.config.SegmentLength
	hop := e.config.HopSize()
	numSegments := e.config.Segments(len(signal))
	if numSegments <= 0 {
		return nil, fmt.Errorf("%w: have %d samples, need at least %d", ErrSignalTooShort, len(signal), segLen)
	}

	freqBins := segLen/2 + 1
	fs := float64(sampleRate)

	var scale float64
	switch e.config.Scaling {
	case ScalingSpectrum:
		scale = 1.0 / (e.windowSum * e.windowSum)
	default:
		scale = 1.0 / (fs * e.windowSumSquares)
	}

	// Frequency-major output
	power := make([][]float64, freqBins)
	for f := range power {
		power[f] = make([]float64, numSegments)
	}

	frame := make([]float64, segLen)
	for seg := range numSegments {
		start := seg * hop
		copy(frame, signal[start:start+segLen])

		if e.config.Detrend {
			mean := common.Mean(frame)
			for i := range frame {
				frame[i] -= mean
			}
		}

		if err := e.window.ApplyInPlace(frame); err != nil {
			return nil, err
		}

		spectrum := e.fft.PowerOneSided(frame)
		for f := range freqBins {
			p := spectrum[f] * scale
			// One-sided: fold negative frequencies into every bin except DC
			// and, for even lengths, Nyquist
			if f > 0 && (segLen%2 == 1 || f < freqBins-1) {
				p *= 2
			}
			power[f][seg] = p
		}
	}

	result := &SpectrogramResult{
		Frequencies:    common.Arange(freqBins, 0, fs/float64(segLen)),
		Times:          common.Arange(numSegments, float64(segLen/2)/fs, float64(hop)/fs),
		Power:          power,
		FreqBins:       freqBins,
		TimeSegments:   numSegments,
		SampleRate:     sampleRate,
		SegmentLength:  segLen,
		HopSize:        hop,
		FreqResolution: fs / float64(segLen),
		TimeResolution: float64(hop) / fs,
	}

	logger.Debug("Spectrogram computed", logging.Fields{
		"samples":   len(signal),
		"segments":  numSegments,
		"freq_bins": freqBins,
		"window":    e.window.GetType(),
	})

	return result, nil
}

// Spectrogram is a one-shot helper that builds an engine and computes the
// spectrogram of signal.
func Spectrogram(signal []float64, sampleRate int, config SpectrogramConfig) (*SpectrogramResult, error) {
	engine, err := NewSpectrogramEngine(config)
	if err != nil {
		return nil, err
	}
	return engine.Compute(signal, sampleRate)
}
