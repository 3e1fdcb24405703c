// Package logger provides the structured logging used across taskgen.
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mindsurve/taskgen/internal/build"
)

type Logger interface {
	// These ops call directly into the underlying zap implementation.
	Debug(string, ...zap.Field)
	Info(string, ...zap.Field)
	Warn(string, ...zap.Field)
	Error(string, ...zap.Field)
	Panic(string, ...zap.Field)
	Fatal(string, ...zap.Field)

	// The equivalent logger functions, enriched with any fields carried
	// by the context (see ContextWithFields).
	DebugWithContext(context.Context, string, ...zap.Field)
	InfoWithContext(context.Context, string, ...zap.Field)
	WarnWithContext(context.Context, string, ...zap.Field)
	ErrorWithContext(context.Context, string, ...zap.Field)
	PanicWithContext(context.Context, string, ...zap.Field)
	FatalWithContext(context.Context, string, ...zap.Field)
}

type ctxFieldsKey struct{}

// ContextWithFields returns a context carrying zap fields that the
// *WithContext logging methods will append to every entry. Fields set by an
// outer caller are preserved; new fields are appended after them.
func ContextWithFields(ctx context.Context, fields ...zap.Field) context.Context {
	if existing, ok := ctx.Value(ctxFieldsKey{}).([]zap.Field); ok {
		fields = append(existing[:len(existing):len(existing)], fields...)
	}
	return context.WithValue(ctx, ctxFieldsKey{}, fields)
}

// FieldsFromContext returns the zap fields attached to ctx, if any.
func FieldsFromContext(ctx context.Context) []zap.Field {
	fields, _ := ctx.Value(ctxFieldsKey{}).([]zap.Field)
	return fields
}

// ZapLogger is an implementation of Logger backed by uber/zap. The level
// methods without a context come promoted from the embedded zap logger, the
// context-aware variants pick up request-scoped fields on top.
type ZapLogger struct {
	*zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

// With replaces the wrapped logger by one carrying the given fields.
func (l *ZapLogger) With(fields ...zap.Field) {
	l.Logger = l.Logger.With(fields...)
}

func (l *ZapLogger) DebugWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Debug(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (l *ZapLogger) InfoWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Info(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (l *ZapLogger) WarnWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Warn(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (l *ZapLogger) ErrorWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Error(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (l *ZapLogger) PanicWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Panic(msg, append(fields, FieldsFromContext(ctx)...)...)
}

func (l *ZapLogger) FatalWithContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.Logger.Fatal(msg, append(fields, FieldsFromContext(ctx)...)...)
}

// NewNoopLogger provides a noop logger that satisfies the Logger interface.
func NewNoopLogger() *ZapLogger {
	return &ZapLogger{zap.NewNop()}
}

// NewLogger builds a logger with the given output format ("text" or
// "json"), level, and timestamp format ("Unix" or "ISO8601"). Level
// "none" returns a noop logger.
func NewLogger(logFormat, logLevel, logTimestampFormat string) (*ZapLogger, error) {
	if logLevel == "none" {
		return NewNoopLogger(), nil
	}

	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("unrecognized log level %q", logLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.CallerKey = zapcore.OmitKey
	cfg.EncoderConfig.EncodeTime = zapcore.EpochTimeEncoder

	if logTimestampFormat == "ISO8601" {
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if logFormat == "text" {
		cfg.Encoding = "console"
		cfg.DisableCaller = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	if logFormat == "json" {
		log = log.With(zap.String("version", build.Version), zap.String("commit", build.Commit))
	}

	return &ZapLogger{log}, nil
}

// MustNewLogger is like NewLogger but panics on configuration errors.
func MustNewLogger(logFormat, logLevel, logTimestampFormat string) *ZapLogger {
	logger, err := NewLogger(logFormat, logLevel, logTimestampFormat)
	if err != nil {
		panic(err)
	}

	return logger
}
