package sqlcommon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/logger"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg.Logger)
	require.Empty(t, cfg.Username)
	require.Empty(t, cfg.Password)
	require.Zero(t, cfg.MaxOpenConns)
	require.Zero(t, cfg.MaxIdleConns)
	require.Zero(t, cfg.ConnMaxIdleTime)
	require.Zero(t, cfg.ConnMaxLifetime)
	require.False(t, cfg.ExportMetrics)
}

func TestNewConfigAppliesOptions(t *testing.T) {
	l := logger.MustNewLogger("text", "info", "Unix")

	cfg := NewConfig(
		WithUsername("taskgen"),
		WithPassword("hunter2"),
		WithLogger(l),
		WithMaxOpenConns(30),
		WithMaxIdleConns(10),
		WithConnMaxIdleTime(2*time.Minute),
		WithConnMaxLifetime(time.Hour),
		WithMetrics(),
	)

	require.Equal(t, "taskgen", cfg.Username)
	require.Equal(t, "hunter2", cfg.Password)
	require.Equal(t, l, cfg.Logger)
	require.Equal(t, 30, cfg.MaxOpenConns)
	require.Equal(t, 10, cfg.MaxIdleConns)
	require.Equal(t, 2*time.Minute, cfg.ConnMaxIdleTime)
	require.Equal(t, time.Hour, cfg.ConnMaxLifetime)
	require.True(t, cfg.ExportMetrics)
}
