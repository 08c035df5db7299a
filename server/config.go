package server

import (
	"fmt"
	"time"
)

// Config holds HTTP transport settings
type Config struct {
	Addr            string        `json:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	RequestTimeout  time.Duration `json:"request_timeout"`  // Deadline handed to the analysis pipeline
	ShutdownTimeout time.Duration `json:"shutdown_timeout"` // Grace period for in-flight requests
	MaxUploadBytes  int64         `json:"max_upload_bytes"`
	EnableGzip      bool          `json:"enable_gzip"` // Results are large JSON arrays
}

// DefaultConfig returns a loopback listener on port 5000 with 64 MiB uploads
// and gzip enabled
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:5000",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		RequestTimeout:  45 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxUploadBytes:  64 << 20,
		EnableGzip:      true,
	}
}

// Validate checks the transport settings
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive: %d", c.MaxUploadBytes)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.RequestTimeout < 0 || c.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	return nil
}
