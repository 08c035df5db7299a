package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-scope/analysis"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/server"
	"github.com/RyanBlaney/sonido-scope/transcode"
)

// appConfig aggregates every component configuration. Fields missing from a
// config file keep their defaults.
type appConfig struct {
	Log      logging.Config          `json:"log"`
	Server   server.Config           `json:"server"`
	Analysis analysis.Config         `json:"analysis"`
	Decoder  transcode.DecoderConfig `json:"decoder"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Log:      logging.DefaultConfig(),
		Server:   server.DefaultConfig(),
		Analysis: analysis.DefaultConfig(),
		Decoder:  *transcode.DefaultDecoderConfig(),
	}
}

// loadConfig overlays the JSON file at path onto the defaults
func loadConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}
	return nil
}
