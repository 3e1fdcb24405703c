// Package config contains the configuration tree for the taskgen server
// binary, its defaults, and the validation applied before startup.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mindsurve/taskgen/pkg/iped"
)

const (
	// DefaultGenerationTimeout bounds one matrix generation run. A run
	// that exceeds it is reported as infeasible at the current limits.
	DefaultGenerationTimeout = 30 * time.Second

	// DefaultClientTimeout is the default timeout the bundled Go client
	// applies to requests, matrix downloads included.
	DefaultClientTimeout = 300 * time.Second

	// DefaultMaxOpenConns is the default maximum of open datastore
	// connections.
	DefaultMaxOpenConns = 30

	// DefaultMaxIdleConns is the default maximum of idle datastore
	// connections.
	DefaultMaxIdleConns = 10

	// DefaultTraceSampleRatio is the fraction of traces sampled when
	// tracing is enabled.
	DefaultTraceSampleRatio = 0.2

	additionalUpstreamTimeout = 3 * time.Second
)

// DatastoreMetricsConfig defines whether the datastore's connection
// pool statistics are exported to prometheus.
type DatastoreMetricsConfig struct {
	// Enabled enables the sql.DBStats collector for the datastore.
	Enabled bool
}

// DatastoreConfig defines the datastore engine and its connection
// tuning.
type DatastoreConfig struct {
	// Engine is one of "memory", "sqlite", "postgres", "mysql".
	Engine   string
	URI      string
	Username string
	Password string

	// MaxOpenConns is the maximum number of open connections to the
	// datastore.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of connections to the datastore
	// in the idle connection pool.
	MaxIdleConns int

	// ConnMaxIdleTime is the maximum amount of time a connection to the
	// datastore may be idle.
	ConnMaxIdleTime time.Duration

	// ConnMaxLifetime is the maximum amount of time a connection to the
	// datastore may be reused.
	ConnMaxLifetime time.Duration

	Metrics DatastoreMetricsConfig
}

// TLSConfig defines configuration for the server's TLS.
type TLSConfig struct {
	Enabled  bool
	CertPath string `mapstructure:"cert"`
	KeyPath  string `mapstructure:"key"`
}

// HTTPConfig defines configuration for the HTTP server.
type HTTPConfig struct {
	Enabled bool
	Addr    string
	TLS     *TLSConfig

	// UpstreamTimeout is the timeout applied to each request when no
	// overall request timeout is configured.
	UpstreamTimeout time.Duration

	CORSAllowedOrigins []string `default:"*" split_words:"true"`
	CORSAllowedHeaders []string `default:"*" split_words:"true"`
}

// LogConfig defines the log format, level, and timestamp format.
type LogConfig struct {
	// Format is one of "text" or "json".
	Format string

	// Level is one of "none", "debug", "info", "warn", "error", "panic",
	// or "fatal".
	Level string

	// TimestampFormat is one of "Unix" or "ISO8601".
	TimestampFormat string
}

// TraceConfig defines configuration for the OTLP trace exporter.
type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64

	// TailLatency, when positive, drops every trace whose root span
	// completed faster than the given duration.
	TailLatency time.Duration

	ServiceName string
}

// OTLPTraceConfig defines where spans are exported to.
type OTLPTraceConfig struct {
	Endpoint string
	TLS      OTLPTraceTLSConfig
}

// OTLPTraceTLSConfig defines whether the exporter connection uses TLS.
type OTLPTraceTLSConfig struct {
	Enabled bool
}

// MetricConfig defines configuration for the prometheus /metrics
// endpoint.
type MetricConfig struct {
	Enabled bool
	Addr    string
}

// ProfilerConfig defines configuration for the pprof server.
type ProfilerConfig struct {
	Enabled bool
	Addr    string
}

// GenerationConfig defines the tuning knobs of the matrix generator.
type GenerationConfig struct {
	// Timeout bounds one generation run. Zero disables the deadline.
	Timeout time.Duration

	// PoolCap is the per-active-count candidate pool cap.
	PoolCap int

	// PoolCapGrowth is the cap multiplier applied before the automatic
	// regeneration attempt.
	PoolCapGrowth int

	// PoolCacheSize is the number of candidate pools cached across
	// requests. Zero disables the cache.
	PoolCacheSize int

	// Workers caps parallel respondent scheduling. Zero or one keeps
	// the sequential, byte-reproducible path.
	Workers int
}

// Config is the taskgen server configuration, assembled by the CLI from
// flags, TASKGEN_ environment variables, and config.yaml.
type Config struct {
	Datastore  DatastoreConfig
	Generation GenerationConfig
	HTTP       HTTPConfig
	Log        LogConfig
	Trace      TraceConfig
	Metrics    MetricConfig
	Profiler   ProfilerConfig

	// RequestTimeout, when positive, bounds every API request. When
	// zero, HTTP.UpstreamTimeout applies instead.
	RequestTimeout time.Duration

	// ListStudiesMaxPageSize caps the page size accepted by the study
	// list endpoint.
	ListStudiesMaxPageSize int

	// ContinuationTokenCipherKey, when set, encrypts list continuation
	// tokens so they cannot be forged or inspected.
	ContinuationTokenCipherKey string
}

// DefaultContextTimeout returns the actual timeout enforced on request
// contexts: the configured request timeout padded for the HTTP layer,
// or the upstream timeout when no request timeout is set.
func DefaultContextTimeout(config *Config) time.Duration {
	if config.RequestTimeout > 0 {
		return config.RequestTimeout + additionalUpstreamTimeout
	}
	if config.HTTP.Enabled && config.HTTP.UpstreamTimeout > 0 {
		return config.HTTP.UpstreamTimeout
	}
	return 0
}

// Verify checks the whole configuration and returns the first problem
// found.
func (cfg *Config) Verify() error {
	if err := cfg.VerifyServerSettings(); err != nil {
		return err
	}
	return cfg.VerifyBinarySettings()
}

// VerifyServerSettings validates the settings the server core depends
// on.
func (cfg *Config) VerifyServerSettings() error {
	if err := cfg.verifyRequestTimeouts(); err != nil {
		return err
	}

	if cfg.Generation.PoolCap < 1 {
		return fmt.Errorf("config 'generation.poolCap' must be a positive integer")
	}
	if cfg.Generation.PoolCapGrowth < 2 {
		return fmt.Errorf("config 'generation.poolCapGrowth' must be at least 2")
	}
	if cfg.Generation.PoolCacheSize < 0 {
		return fmt.Errorf("config 'generation.poolCacheSize' must not be negative")
	}
	if cfg.Generation.Workers < 0 {
		return fmt.Errorf("config 'generation.workers' must not be negative")
	}
	if cfg.ListStudiesMaxPageSize < 1 {
		return fmt.Errorf("config 'listStudiesMaxPageSize' cannot be 0")
	}

	if cfg.Trace.Enabled {
		if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
			return fmt.Errorf("config 'trace.sampleRatio' must be in the range [0, 1]")
		}
		if cfg.Trace.TailLatency < 0 {
			return fmt.Errorf("config 'trace.tailLatency' must be a non-negative duration")
		}
	}

	return nil
}

// VerifyBinarySettings validates the settings only the binary's outer
// layers consume.
func (cfg *Config) VerifyBinarySettings() error {
	if cfg.HTTP.TLS != nil && cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.CertPath == "" || cfg.HTTP.TLS.KeyPath == "" {
			return fmt.Errorf("configs 'http.tls.cert' and 'http.tls.key' are required when TLS is enabled")
		}
	}

	if !slices.Contains([]string{"text", "json"}, cfg.Log.Format) {
		return fmt.Errorf("config 'log.format' must be 'text' or 'json'")
	}

	if !slices.Contains([]string{"none", "debug", "info", "warn", "error", "panic", "fatal"}, cfg.Log.Level) {
		return fmt.Errorf("config 'log.level' must be one of 'none', 'debug', 'info', 'warn', 'error', 'panic' or 'fatal'")
	}

	if cfg.Log.Level == "none" {
		fmt.Println("WARNING: logging is turned off. Keep it on in production, otherwise operational and security events leave no trail.")
	}

	if !slices.Contains([]string{"Unix", "ISO8601"}, cfg.Log.TimestampFormat) {
		return fmt.Errorf("config 'log.timestampFormat' must be 'Unix' or 'ISO8601'")
	}

	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("config 'requestTimeout' must be a non-negative duration")
	}

	if cfg.RequestTimeout == 0 && cfg.HTTP.Enabled && cfg.HTTP.UpstreamTimeout < 0 {
		return fmt.Errorf("config 'http.upstreamTimeout' must be a non-negative duration")
	}

	engine := strings.ToLower(cfg.Datastore.Engine)
	if !slices.Contains([]string{"", "memory", "sqlite", "postgres", "mysql"}, engine) {
		return fmt.Errorf("config 'datastore.engine' must be 'memory', 'sqlite', 'postgres' or 'mysql'")
	}

	return nil
}

func (cfg *Config) verifyRequestTimeouts() error {
	if cfg.RequestTimeout < 0 {
		return fmt.Errorf("config 'requestTimeout' must be a non-negative duration")
	}
	if cfg.Generation.Timeout < 0 {
		return fmt.Errorf("config 'generation.timeout' must be a non-negative duration")
	}

	configuredTimeout := cfg.RequestTimeout
	if configuredTimeout == 0 && cfg.HTTP.Enabled {
		if cfg.HTTP.UpstreamTimeout < 0 {
			return fmt.Errorf("config 'http.upstreamTimeout' must be a non-negative duration")
		}
		configuredTimeout = cfg.HTTP.UpstreamTimeout
	}

	if configuredTimeout > 0 && cfg.Generation.Timeout > configuredTimeout {
		return fmt.Errorf(
			"configured request timeout (%s) cannot be lower than 'generation.timeout' config (%s)",
			configuredTimeout,
			cfg.Generation.Timeout,
		)
	}

	return nil
}

// DefaultConfig is the base configuration before layering flags,
// environment variables, and config.yaml on top of it.
func DefaultConfig() *Config {
	return &Config{
		Datastore: DatastoreConfig{
			Engine:       "memory",
			MaxOpenConns: DefaultMaxOpenConns,
			MaxIdleConns: DefaultMaxIdleConns,
		},
		Generation: GenerationConfig{
			Timeout:       DefaultGenerationTimeout,
			PoolCap:       iped.DefaultPoolCap,
			PoolCapGrowth: iped.DefaultPoolCapGrowth,
			PoolCacheSize: iped.DefaultPoolCacheSize,
			Workers:       1,
		},
		HTTP: HTTPConfig{
			Enabled:            true,
			Addr:               "0.0.0.0:8080",
			UpstreamTimeout:    DefaultGenerationTimeout + additionalUpstreamTimeout,
			CORSAllowedOrigins: []string{"*"},
			CORSAllowedHeaders: []string{"*"},
			TLS:                &TLSConfig{},
		},
		Log: LogConfig{
			Format:          "text",
			Level:           "info",
			TimestampFormat: "Unix",
		},
		Trace: TraceConfig{
			Enabled: false,
			OTLP: OTLPTraceConfig{
				Endpoint: "0.0.0.0:4317",
				TLS: OTLPTraceTLSConfig{
					Enabled: false,
				},
			},
			SampleRatio: DefaultTraceSampleRatio,
			ServiceName: "taskgen",
		},
		Metrics: MetricConfig{
			Enabled: true,
			Addr:    "0.0.0.0:2112",
		},
		Profiler: ProfilerConfig{
			Enabled: false,
			Addr:    ":3001",
		},
		RequestTimeout:         0,
		ListStudiesMaxPageSize: 100,
	}
}

// MustDefaultConfig returns the default config, panicking on an
// internal inconsistency.
func MustDefaultConfig() *Config {
	cfg := DefaultConfig()
	if err := cfg.Verify(); err != nil {
		panic(err)
	}
	return cfg
}
