package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-scope/algorithms/spectral"
	"github.com/RyanBlaney/sonido-scope/analysis"
	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/RyanBlaney/sonido-scope/transcode"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sineWAV(t *testing.T, sampleRate, channels, frames int) []byte {
	t.Helper()

	data := make([]int, 0, frames*channels)
	for i := range frames {
		v := int(16000 * math.Sin(2*math.Pi*1000*float64(i)/float64(sampleRate)))
		for range channels {
			data = append(data, v)
		}
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	_ = f.Close()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return raw
}

func uploadRequest(t *testing.T, field string, payload []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, "tone.wav")
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.NewZapLoggerFromCore(core, logging.DebugLevel)

	pipeline, err := analysis.NewPipeline(analysis.DefaultConfig(), logger)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.EnableGzip = false
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := New(cfg, pipeline, nil, logger)
	require.NoError(t, err)
	return s, logs
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}

func TestUpload_Success(t *testing.T) {
	s, logs := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "file", sineWAV(t, 8000, 2, 8000)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"times", "oscilogram", "frequencies", "spectrogram", "time_bins"} {
		assert.Contains(t, raw, key)
	}

	var result analysis.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Times, 8000)
	assert.Len(t, result.Oscilogram, 8000)
	assert.Len(t, result.Frequencies, 129)
	assert.Len(t, result.TimeBins, 61)
	require.Len(t, result.Spectrogram, 129)
	assert.Len(t, result.Spectrogram[0], 61)
	assert.Equal(t, 8000, result.SampleRate)

	analyzed := logs.FilterMessage("Upload analyzed").All()
	require.Len(t, analyzed, 1)
	assert.EqualValues(t, 2, analyzed[0].ContextMap()["channels"])
}

func TestUpload_NoFile(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for name, req := range map[string]*http.Request{
		"missing field": uploadRequest(t, "", nil),
		"wrong field":   uploadRequest(t, "audio", []byte("RIFF")),
		"empty file":    uploadRequest(t, "file", nil),
		"not multipart": httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("x")),
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "No file provided", decodeError(t, rec.Body))
		})
	}
}

func TestUpload_Rejections(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		name    string
		payload []byte
		status  int
	}{
		{"not a wav", bytes.Repeat([]byte("garbage "), 32), http.StatusBadRequest},
		{"sample rate too low", sineWAV(t, 6000, 1, 6000), http.StatusBadRequest},
		{"shorter than one segment", sineWAV(t, 8000, 1, 100), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, uploadRequest(t, "file", tt.payload))

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec.Body))
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) { c.MaxUploadBytes = 1024 })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, "file", sineWAV(t, 8000, 1, 8000)))

	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec.Body))
}

func TestUpload_Gzip(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) { c.EnableGzip = true })

	req := uploadRequest(t, "file", sineWAV(t, 8000, 1, 4000))
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var result analysis.Result
	require.NoError(t, json.NewDecoder(zr).Decode(&result))
	assert.Len(t, result.Oscilogram, 4000)
}

func TestIndexAndHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `id="audioFile"`)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/upload")
	// Plots follow the audio player position
	assert.Contains(t, rec.Body.String(), "ontimeupdate = updateGraphs")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecoverer(t *testing.T) {
	s, logs := newTestServer(t, nil)

	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeError(t, rec.Body))
	assert.Equal(t, 1, logs.FilterMessage("Handler panicked").Len())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errNoFile, http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{transcode.ErrInvalidWAV, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", transcode.ErrUnsupportedFormat), http.StatusUnsupportedMediaType},
		{&analysis.Error{Kind: analysis.InvalidInput}, http.StatusBadRequest},
		{&analysis.Error{Kind: analysis.DesignError}, http.StatusUnprocessableEntity},
		{&analysis.Error{Kind: analysis.ComputationError, Err: spectral.ErrSignalTooShort}, http.StatusUnprocessableEntity},
		{&analysis.Error{Kind: analysis.ComputationError, Err: context.DeadlineExceeded}, http.StatusServiceUnavailable},
		{&analysis.Error{Kind: analysis.ComputationError}, http.StatusInternalServerError},
		{context.Canceled, statusClientClosedRequest},
		{&analysis.Error{Kind: analysis.ComputationError, Err: context.Canceled}, statusClientClosedRequest},
		{fmt.Errorf("decode: %w", context.Canceled), statusClientClosedRequest},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

func TestWriteError_ClientGone(t *testing.T) {
	s, logs := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := uploadRequest(t, "file", sineWAV(t, 8000, 1, 8000)).WithContext(ctx)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, statusClientClosedRequest, rec.Code)
	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	rejected := logs.FilterMessage("Request rejected")
	require.Equal(t, 1, rejected.Len())
	assert.Equal(t, zapcore.WarnLevel, rejected.All()[0].Level)
}

func TestDefaultConfig_Loopback(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	host, port, err := net.SplitHostPort(cfg.Addr)
	require.NoError(t, err)
	assert.Equal(t, "5000", port)
	assert.True(t, net.ParseIP(host).IsLoopback())
}

func TestServeListener_Shutdown(t *testing.T) {
	s, _ := newTestServer(t, func(c *Config) { c.ShutdownTimeout = time.Second })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNew_Validation(t *testing.T) {
	pipeline, err := analysis.NewPipeline(analysis.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = New(DefaultConfig(), nil, nil, nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.MaxUploadBytes = 0
	_, err = New(cfg, pipeline, nil, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Addr = ""
	_, err = New(cfg, pipeline, nil, nil)
	assert.Error(t, err)
}
