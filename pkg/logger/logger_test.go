package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		level zapcore.Level
		emit  func(l *ZapLogger, msg string)
	}{
		{zapcore.DebugLevel, func(l *ZapLogger, msg string) { l.Debug(msg) }},
		{zapcore.InfoLevel, func(l *ZapLogger, msg string) { l.Info(msg) }},
		{zapcore.WarnLevel, func(l *ZapLogger, msg string) { l.Warn(msg) }},
		{zapcore.ErrorLevel, func(l *ZapLogger, msg string) { l.Error(msg) }},
	} {
		t.Run(tc.level.String(), func(t *testing.T) {
			core, logs := observer.New(zap.DebugLevel)
			l := &ZapLogger{zap.New(core)}

			tc.emit(l, "matrix ready")

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			require.Equal(t, "matrix ready", entry.Message)
			require.Equal(t, tc.level, entry.Level)
			require.Empty(t, entry.ContextMap())
		})
	}
}

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &ZapLogger{zap.New(core)}

	ctx := ContextWithFields(context.Background(), zap.String("request_id", "abc123"))
	ctx = ContextWithFields(ctx, zap.Int("attempt", 2))

	l.InfoWithContext(ctx, "generating", zap.String("study_id", "s1"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, "generating", entry.Message)
	require.Equal(t, map[string]interface{}{
		"request_id": "abc123",
		"attempt":    int64(2),
		"study_id":   "s1",
	}, entry.ContextMap())
}

func TestContextFieldsMissing(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &ZapLogger{zap.New(core)}

	l.WarnWithContext(context.Background(), "no fields")

	require.Equal(t, 1, logs.Len())
	require.Empty(t, logs.All()[0].ContextMap())
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	_, err := NewLogger("json", "verbose", "Unix")
	require.Error(t, err)
}

func TestNewLoggerNone(t *testing.T) {
	l, err := NewLogger("json", "none", "Unix")
	require.NoError(t, err)
	require.NotNil(t, l)
	l.Info("dropped") // must not panic
}
