package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/sonido-scope/algorithms/common"
	"github.com/RyanBlaney/sonido-scope/algorithms/filters"
	"github.com/RyanBlaney/sonido-scope/algorithms/spectral"
	"github.com/RyanBlaney/sonido-scope/logging"
)

// Pipeline runs bandpass filtering, peak normalization, spectrogram
// computation, spectral subtraction and dB conversion over a mono buffer.
//
// A Pipeline holds only immutable configuration plus a bounded design cache,
// so one instance can serve concurrent requests.
type Pipeline struct {
	config  Config
	designs *filters.DesignCache
	engine  *spectral.SpectrogramEngine
	logger  logging.Logger
}

// NewPipeline validates config and prepares the spectrogram engine.
// A nil logger falls back to the global logger.
func NewPipeline(config Config, logger logging.Logger) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	engine, err := spectral.NewSpectrogramEngine(config.Spectrogram)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &Pipeline{
		config:  config,
		designs: filters.NewDesignCache(config.DesignCacheSize),
		engine:  engine,
		logger:  logger,
	}, nil
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config {
	return p.config
}

// Analyze runs the full pipeline. On failure it returns a nil Result and an
// *Error describing the failing stage; no partial output is produced.
func (p *Pipeline) Analyze(ctx context.Context, samples []float64, sampleRate int) (*Result, error) {
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"component":   "analysis_pipeline",
		"function":    "Analyze",
		"samples":     len(samples),
		"sample_rate": sampleRate,
	})
	start := time.Now()

	if err := p.validateInput(samples, sampleRate); err != nil {
		logger.Debug("Rejected input", logging.Fields{"reason": err.Error()})
		return nil, err
	}

	fc := p.config.Filter
	coeffs, err := p.designs.ButterBandpass(fc.LowCutHz, fc.HighCutHz, sampleRate, fc.Order)
	if err != nil {
		return nil, newError(DesignError, "design", err)
	}
	if !coeffs.Stable() {
		return nil, newError(DesignError, "design",
			fmt.Errorf("bandpass %g-%g Hz order %d is unstable at %d Hz", fc.LowCutHz, fc.HighCutHz, fc.Order, sampleRate))
	}

	filtered, err := coeffs.Apply(samples)
	if err != nil {
		return nil, newError(ComputationError, "filter", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(ComputationError, "filter", err)
	}

	normalized := common.PeakNormalize(filtered)

	fs := float64(sampleRate)
	times := common.Arange(len(normalized), 0, 1/fs)

	spec, err := p.engine.Compute(normalized, sampleRate)
	if err != nil {
		return nil, newError(ComputationError, "spectrogram", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(ComputationError, "spectrogram", err)
	}

	denoised, err := spectral.SpectralSubtraction(spec.Power, p.config.Denoise)
	if err != nil {
		return nil, newError(ComputationError, "denoise", err)
	}

	result := &Result{
		Times:           times,
		Oscilogram:      normalized,
		Frequencies:     spec.Frequencies,
		Spectrogram:     spectral.PowerToDecibels(denoised, p.config.DecibelFloor),
		TimeBins:        spec.Times,
		SampleRate:      sampleRate,
		DurationSeconds: float64(len(samples)) / fs,
	}

	if err := checkFinite(result); err != nil {
		return nil, newError(ComputationError, "output", err)
	}

	logger.Debug("Analysis complete", logging.Fields{
		"segments":    spec.TimeSegments,
		"freq_bins":   spec.FreqBins,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return result, nil
}

func (p *Pipeline) validateInput(samples []float64, sampleRate int) error {
	if len(samples) == 0 {
		return newError(InvalidInput, "input", errors.New("empty audio buffer"))
	}
	if sampleRate <= 0 {
		return newError(InvalidInput, "input", fmt.Errorf("sample rate must be positive, got %d", sampleRate))
	}
	if !common.AllFinite(samples) {
		return newError(InvalidInput, "input", errors.New("audio buffer contains NaN or infinite samples"))
	}

	nyquist := float64(sampleRate) / 2
	if p.config.Filter.HighCutHz >= nyquist {
		return newError(InvalidInput, "input", fmt.Errorf(
			"sample rate %d Hz too low for the %g-%g Hz band (Nyquist %g Hz)",
			sampleRate, p.config.Filter.LowCutHz, p.config.Filter.HighCutHz, nyquist))
	}
	return nil
}

func checkFinite(r *Result) error {
	if !common.AllFinite(r.Oscilogram) {
		return errors.New("non-finite value in oscillogram")
	}
	for f, row := range r.Spectrogram {
		for t, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("non-finite spectrogram value at bin %d, segment %d", f, t)
			}
		}
	}
	return nil
}

// defaultPipeline backs the package-level Analyze. It keeps no design cache
// so nothing accumulates in process-wide state.
var defaultPipeline *Pipeline

func init() {
	cfg := DefaultConfig()
	cfg.DesignCacheSize = 0
	p, err := NewPipeline(cfg, nil)
	if err != nil {
		panic(err)
	}
	defaultPipeline = p
}

// Analyze runs the default telephone-band pipeline
func Analyze(ctx context.Context, samples []float64, sampleRate int) (*Result, error) {
	return defaultPipeline.Analyze(ctx, samples, sampleRate)
}
