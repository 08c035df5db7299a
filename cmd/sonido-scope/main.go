// Command sonido-scope serves oscillogram and denoised spectrogram analysis of
// uploaded WAV files.
//
// Usage:
//
//	sonido-scope [flags]
//	sonido-scope -analyze recording.wav > result.json
//
// Examples:
//
//	sonido-scope -addr :8080
//	sonido-scope -config scope.json -log-level debug
//	sonido-scope -dev
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-scope/analysis"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/server"
	"github.com/RyanBlaney/sonido-scope/transcode"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	dev := flag.Bool("dev", false, "human-readable console logs")
	analyzeFile := flag.String("analyze", "", "analyze a WAV file, print the JSON result and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sonido-scope [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Serves bandpass-filtered oscillograms and denoised spectrograms of WAV uploads.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sonido-scope: %v\n", err)
		os.Exit(2)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "log-level":
			cfg.Log.Level = *logLevel
		case "dev":
			cfg.Log.Development = *dev
		}
	})

	logger := logging.NewZapLogger(cfg.Log)
	defer logger.Sync()
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *analyzeFile); err != nil {
		logger.Error(err, "sonido-scope exited with error")
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, logger logging.Logger, analyzeFile string) error {
	pipeline, err := analysis.NewPipeline(cfg.Analysis, logger)
	if err != nil {
		return err
	}
	decoder := transcode.NewDecoder(&cfg.Decoder)

	if analyzeFile != "" {
		return analyzeToStdout(ctx, pipeline, decoder, analyzeFile)
	}

	srv, err := server.New(cfg.Server, pipeline, decoder, logger)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

func analyzeToStdout(ctx context.Context, pipeline *analysis.Pipeline, decoder *transcode.Decoder, path string) error {
	audio, err := decoder.DecodeFile(ctx, path)
	if err != nil {
		return err
	}

	result, err := pipeline.Analyze(ctx, audio.PCM, audio.SampleRate)
	if err != nil {
		return err
	}

	return json.NewEncoder(os.Stdout).Encode(result)
}
