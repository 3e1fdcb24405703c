package config

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyConfig(t *testing.T) {
	t.Run("default_config_passes", func(t *testing.T) {
		cfg := DefaultConfig()

		err := cfg.Verify()
		require.NoError(t, err)
	})

	t.Run("request_timeout_cannot_be_less_than_generation_timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.Timeout = 5 * time.Minute
		cfg.RequestTimeout = 0
		cfg.HTTP.UpstreamTimeout = 2 * time.Second

		err := cfg.Verify()
		require.EqualError(t, err, "configured request timeout (2s) cannot be lower than 'generation.timeout' config (5m0s)")
	})

	t.Run("explicit_request_timeout_wins_over_upstream_timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.Timeout = 4 * time.Second
		cfg.RequestTimeout = 10 * time.Second
		cfg.HTTP.UpstreamTimeout = 2 * time.Second

		err := cfg.Verify()
		require.NoError(t, err)
	})

	t.Run("pool_cap_not_zero", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.PoolCap = 0

		err := cfg.Verify()
		require.EqualError(t, err, "config 'generation.poolCap' must be a positive integer")
	})

	t.Run("pool_cap_growth_below_two", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.PoolCapGrowth = 1

		err := cfg.Verify()
		require.EqualError(t, err, "config 'generation.poolCapGrowth' must be at least 2")
	})

	t.Run("negative_pool_cache_size", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.PoolCacheSize = -1

		err := cfg.Verify()
		require.Error(t, err)
	})

	t.Run("list_studies_max_page_size_not_zero", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ListStudiesMaxPageSize = 0

		err := cfg.Verify()
		require.EqualError(t, err, "config 'listStudiesMaxPageSize' cannot be 0")
	})

	t.Run("tls_enabled_without_cert_path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.HTTP.TLS = &TLSConfig{
			Enabled: true,
			KeyPath: "key.pem",
		}

		err := cfg.Verify()
		require.EqualError(t, err, "configs 'http.tls.cert' and 'http.tls.key' are required when TLS is enabled")
	})

	t.Run("tls_enabled_without_key_path", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.HTTP.TLS = &TLSConfig{
			Enabled:  true,
			CertPath: "cert.pem",
		}

		err := cfg.Verify()
		require.EqualError(t, err, "configs 'http.tls.cert' and 'http.tls.key' are required when TLS is enabled")
	})

	t.Run("unknown_log_format", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Format = "notaformat"

		err := cfg.Verify()
		require.EqualError(t, err, "config 'log.format' must be 'text' or 'json'")
	})

	t.Run("unknown_log_level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Level = "notalevel"

		err := cfg.Verify()
		require.EqualError(t, err, "config 'log.level' must be one of 'none', 'debug', 'info', 'warn', 'error', 'panic' or 'fatal'")
	})

	t.Run("unknown_log_timestamp_format", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.TimestampFormat = "notatimestampformat"

		err := cfg.Verify()
		require.EqualError(t, err, "config 'log.timestampFormat' must be 'Unix' or 'ISO8601'")
	})

	t.Run("negative_request_timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RequestTimeout = -2 * time.Second

		err := cfg.Verify()
		require.EqualError(t, err, "config 'requestTimeout' must be a non-negative duration")
	})

	t.Run("negative_upstream_timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RequestTimeout = 0
		cfg.HTTP.Enabled = true
		cfg.HTTP.UpstreamTimeout = -3 * time.Second

		err := cfg.Verify()
		require.Error(t, err)
	})

	t.Run("negative_generation_timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.Timeout = -4 * time.Second

		err := cfg.Verify()
		require.EqualError(t, err, "config 'generation.timeout' must be a non-negative duration")
	})

	t.Run("invalid_datastore_engine", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Datastore.Engine = "oracle"

		err := cfg.Verify()
		require.EqualError(t, err, "config 'datastore.engine' must be 'memory', 'sqlite', 'postgres' or 'mysql'")
	})

	t.Run("trace_sample_ratio_out_of_range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Trace.Enabled = true
		cfg.Trace.SampleRatio = 1.5

		err := cfg.Verify()
		require.EqualError(t, err, "config 'trace.sampleRatio' must be in the range [0, 1]")
	})

	t.Run("negative_trace_tail_latency", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Trace.Enabled = true
		cfg.Trace.TailLatency = -time.Second

		err := cfg.Verify()
		require.EqualError(t, err, "config 'trace.tailLatency' must be a non-negative duration")
	})

	t.Run("warns_when_log_level_is_none", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Level = "none"

		out := captureStdout(t, func() { _ = cfg.Verify() })
		require.Contains(t, out, "WARNING: logging is turned off")
	})

	t.Run("no_warning_for_other_log_levels", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Level = "info"

		out := captureStdout(t, func() { _ = cfg.Verify() })
		require.NotContains(t, out, "WARNING")
	})
}

// captureStdout runs fn and returns everything it wrote to stdout. Not safe
// for parallel subtests, stdout is process global.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)

	return buf.String()
}

func TestVerifyServerSettings(t *testing.T) {
	t.Run("request_timeout_cannot_be_less_than_generation_timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.Timeout = 5 * time.Minute
		cfg.RequestTimeout = 0
		cfg.HTTP.UpstreamTimeout = 2 * time.Second

		err := cfg.VerifyServerSettings()
		require.EqualError(t, err, "configured request timeout (2s) cannot be lower than 'generation.timeout' config (5m0s)")
	})

	t.Run("disabled_http_skips_the_upstream_timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.Timeout = 5 * time.Minute
		cfg.RequestTimeout = 0
		cfg.HTTP.Enabled = false
		cfg.HTTP.UpstreamTimeout = 2 * time.Second

		err := cfg.VerifyServerSettings()
		require.NoError(t, err)
	})

	t.Run("does_not_check_binary_settings", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Format = "notaformat"

		err := cfg.VerifyServerSettings()
		require.NoError(t, err)
	})
}

func TestVerifyBinarySettings(t *testing.T) {
	t.Run("tls_requires_both_cert_and_key", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.HTTP.TLS = &TLSConfig{
			Enabled: true,
			KeyPath: "key.pem",
		}

		err := cfg.VerifyBinarySettings()
		require.EqualError(t, err, "configs 'http.tls.cert' and 'http.tls.key' are required when TLS is enabled")
	})

	t.Run("does_not_check_server_settings", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Generation.PoolCap = 0

		err := cfg.VerifyBinarySettings()
		require.NoError(t, err)
	})
}

func TestDefaultContextTimeout(t *testing.T) {
	cases := map[string]struct {
		config Config
		want   time.Duration
	}{
		"explicit_request_timeout_gets_padded": {
			config: Config{
				RequestTimeout: 5 * time.Second,
				HTTP:           HTTPConfig{Enabled: true, UpstreamTimeout: time.Second},
			},
			want: 5*time.Second + additionalUpstreamTimeout,
		},
		"upstream_timeout_applies_as_is": {
			config: Config{
				HTTP: HTTPConfig{Enabled: true, UpstreamTimeout: time.Second},
			},
			want: time.Second,
		},
		"no_timeout_without_http": {
			config: Config{
				HTTP: HTTPConfig{Enabled: false, UpstreamTimeout: time.Second},
			},
			want: 0,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, DefaultContextTimeout(&tc.config))
		})
	}
}
