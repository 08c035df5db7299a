package logging

import (
	"context"
	"maps"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the zap-backed logger
type Config struct {
	Level       string `json:"level"`       // "debug", "info", "warn", "error"
	Development bool   `json:"development"` // Console encoder with colored levels instead of JSON
}

// DefaultConfig returns JSON output at info level
func DefaultConfig() Config {
	return Config{Level: "info"}
}

// ZapLogger implements Logger on top of go.uber.org/zap.
// Loggers derived with WithFields share the same atomic level.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewZapLogger builds a logger writing to stderr
func NewZapLogger(cfg Config) *ZapLogger {
	level := zap.NewAtomicLevelAt(toZapLevel(ParseLevel(cfg.Level)))

	var encoder zapcore.Encoder
	if cfg.Development {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return &ZapLogger{
		logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)),
		level:  level,
	}
}

// NewZapLoggerFromCore wraps an existing core, e.g. an observer in tests.
// The returned logger's SetLevel filters in front of the core.
func NewZapLoggerFromCore(core zapcore.Core, level Level) *ZapLogger {
	atomic := zap.NewAtomicLevelAt(toZapLevel(level))
	return &ZapLogger{
		logger: zap.New(&levelFilter{Core: core, level: atomic}),
		level:  atomic,
	}
}

// levelFilter gates an arbitrary core behind an atomic level
type levelFilter struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (l *levelFilter) Enabled(lvl zapcore.Level) bool {
	return l.level.Enabled(lvl) && l.Core.Enabled(lvl)
}

func (l *levelFilter) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilter{Core: l.Core.With(fields), level: l.level}
}

func (l *levelFilter) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !l.level.Enabled(ent.Level) {
		return ce
	}
	return l.Core.Check(ent, ce)
}

// Zap exposes the underlying logger for integrations that need it
func (z *ZapLogger) Zap() *zap.Logger {
	return z.logger
}

// Sync flushes buffered entries
func (z *ZapLogger) Sync() error {
	return z.logger.Sync()
}

func (z *ZapLogger) Debug(msg string, fields ...Fields) {
	z.logger.Debug(msg, toZapFields(nil, fields)...)
}

func (z *ZapLogger) Info(msg string, fields ...Fields) {
	z.logger.Info(msg, toZapFields(nil, fields)...)
}

func (z *ZapLogger) Warn(msg string, fields ...Fields) {
	z.logger.Warn(msg, toZapFields(nil, fields)...)
}

func (z *ZapLogger) Error(err error, msg string, fields ...Fields) {
	z.logger.Error(msg, toZapFields(err, fields)...)
}

func (z *ZapLogger) Fatal(err error, msg string, fields ...Fields) {
	z.logger.Fatal(msg, toZapFields(err, fields)...)
}

func (z *ZapLogger) WithFields(fields Fields) Logger {
	return &ZapLogger{
		logger: z.logger.With(toZapFields(nil, []Fields{fields})...),
		level:  z.level,
	}
}

func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return z.WithFields(fields)
	}
	return z
}

func (z *ZapLogger) SetLevel(level Level) {
	z.level.SetLevel(toZapLevel(level))
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// toZapFields flattens the field maps in key order so output is stable
func toZapFields(err error, fields []Fields) []zap.Field {
	merged := make(Fields)
	for _, f := range fields {
		maps.Copy(merged, f)
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys)+1)
	for _, k := range keys {
		out = append(out, zap.Any(k, merged[k]))
	}
	if err != nil {
		out = append(out, zap.Error(err))
	}
	return out
}
