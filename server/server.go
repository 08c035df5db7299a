package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/RyanBlaney/sonido-scope/analysis"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/transcode"
	"github.com/klauspost/compress/gzhttp"
)

//go:embed web
var webFiles embed.FS

// uploadField is the multipart form field carrying the WAV file
const uploadField = "file"

// Server exposes the analysis pipeline over HTTP
type Server struct {
	config   Config
	pipeline *analysis.Pipeline
	decoder  *transcode.Decoder
	logger   logging.Logger
	handler  http.Handler
}

// New builds a server. A nil decoder uses the default WAV decoder and a nil
// logger falls back to the global logger.
func New(config Config, pipeline *analysis.Pipeline, decoder *transcode.Decoder, logger logging.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if pipeline == nil {
		return nil, errors.New("pipeline cannot be nil")
	}
	if decoder == nil {
		decoder = transcode.NewDecoder(nil)
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	s := &Server{
		config:   config,
		pipeline: pipeline,
		decoder:  decoder,
		logger:   logger.WithFields(logging.Fields{"component": "http_server"}),
	}
	s.handler = s.buildHandler()
	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) buildHandler() http.Handler {
	static, _ := fs.Sub(webFiles, "web")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	if s.config.EnableGzip {
		h = gzhttp.GzipHandler(h)
	}
	return s.recoverer(s.accessLog(h))
}

// Serve listens on the configured address until ctx is cancelled, then drains
// in-flight requests for up to ShutdownTimeout.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", logging.Fields{"addr": ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("Context cancelled, shutting down")
		shutdownTimeout := s.config.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(err, "Graceful shutdown failed")
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(err, "HTTP server error")
			return err
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webFiles.ReadFile("web/index.html")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.WithContext(r.Context()).WithFields(logging.Fields{
		"function": "handleUpload",
	})

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if !errors.As(err, &maxBytes) {
			err = errNoFile
		}
		s.writeError(w, r, err)
		return
	}
	defer file.Close()
	if header.Size == 0 {
		s.writeError(w, r, errNoFile)
		return
	}

	ctx := r.Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	audio, err := s.decoder.DecodeReader(ctx, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	result, err := s.pipeline.Analyze(ctx, audio.PCM, audio.SampleRate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	logger.Info("Upload analyzed", logging.Fields{
		"filename":    header.Filename,
		"size_bytes":  header.Size,
		"sample_rate": audio.SampleRate,
		"channels":    audio.Channels,
		"samples":     len(audio.PCM),
		"segments":    result.Segments(),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	s.writeJSON(w, http.StatusOK, result)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := logging.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error(err, "Request failed", fields)
	} else {
		s.logger.Warn("Request rejected", fields, logging.Fields{"reason": err.Error()})
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(err, "Failed to encode response")
	}
}
