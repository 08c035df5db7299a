package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/RyanBlaney/sonido-scope/logging"
)

// statusRecorder captures the status code written by downstream handlers
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		s.logger.Debug("Request served", logging.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"status":      rec.status,
			"bytes":       rec.bytes,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

// recoverer turns handler panics into a 500 JSON error
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error(fmt.Errorf("panic: %v", rec), "Handler panicked", logging.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"stack":  string(debug.Stack()),
			})
			s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}
