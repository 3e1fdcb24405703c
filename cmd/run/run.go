// Package run contains the command to run a taskgen server.
package run

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"sigs.k8s.io/controller-runtime/pkg/certwatcher"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/mindsurve/taskgen/internal/build"
	"github.com/mindsurve/taskgen/internal/httpapi"
	"github.com/mindsurve/taskgen/pkg/encoder"
	"github.com/mindsurve/taskgen/pkg/encrypter"
	"github.com/mindsurve/taskgen/pkg/iped"
	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/middleware"
	"github.com/mindsurve/taskgen/pkg/middleware/logging"
	"github.com/mindsurve/taskgen/pkg/middleware/recovery"
	"github.com/mindsurve/taskgen/pkg/middleware/requestid"
	"github.com/mindsurve/taskgen/pkg/server"
	serverconfig "github.com/mindsurve/taskgen/pkg/server/config"
	"github.com/mindsurve/taskgen/pkg/storage"
	"github.com/mindsurve/taskgen/pkg/storage/memory"
	"github.com/mindsurve/taskgen/pkg/storage/mysql"
	"github.com/mindsurve/taskgen/pkg/storage/postgres"
	"github.com/mindsurve/taskgen/pkg/storage/sqlcommon"
	"github.com/mindsurve/taskgen/pkg/storage/sqlite"
	"github.com/mindsurve/taskgen/pkg/telemetry"
)

func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the taskgen server",
		Long:  "Start the taskgen service with the configured datastore, generator and telemetry, and serve the HTTP API until terminated.",
		Run:   run,
		Args:  cobra.NoArgs,
	}

	defaultConfig := serverconfig.DefaultConfig()
	flags := cmd.Flags()

	flags.String("datastore-engine", defaultConfig.Datastore.Engine, "which datastore engine persists studies and matrices")

	flags.String("datastore-uri", defaultConfig.Datastore.URI, "the datastore connection uri (required for every engine except 'memory')")

	flags.String("datastore-username", "", "username for the datastore connection, taking precedence over one embedded in the uri")

	flags.String("datastore-password", "", "password for the datastore connection, taking precedence over one embedded in the uri")

	flags.Int("datastore-max-open-conns", defaultConfig.Datastore.MaxOpenConns, "upper bound on open datastore connections")

	flags.Int("datastore-max-idle-conns", defaultConfig.Datastore.MaxIdleConns, "upper bound on idle datastore connections kept in the pool")

	flags.Duration("datastore-conn-max-idle-time", defaultConfig.Datastore.ConnMaxIdleTime, "how long a datastore connection may sit idle before it is closed")

	flags.Duration("datastore-conn-max-lifetime", defaultConfig.Datastore.ConnMaxLifetime, "how long a datastore connection may be reused before it is closed")

	flags.Bool("datastore-metrics-enabled", defaultConfig.Datastore.Metrics.Enabled, "expose sql connection pool metrics")

	flags.Duration("generation-timeout", defaultConfig.Generation.Timeout, "the wall-clock budget for a single matrix generation run. A run that exceeds it is reported as infeasible. 0 disables the deadline")

	flags.Int("generation-pool-cap", defaultConfig.Generation.PoolCap, "the maximum number of candidate vectors sampled per active count when building a pool")

	flags.Int("generation-pool-cap-growth", defaultConfig.Generation.PoolCapGrowth, "the pool cap multiplier applied before the automatic regeneration attempt")

	flags.Int("generation-pool-cache-size", defaultConfig.Generation.PoolCacheSize, "the number of candidate pools cached across requests. 0 disables the cache")

	flags.Int("generation-workers", defaultConfig.Generation.Workers, "the maximum number of respondents scheduled concurrently. 0 or 1 keeps the sequential, byte-reproducible path")

	flags.Bool("http-enabled", defaultConfig.HTTP.Enabled, "serve the taskgen HTTP API")

	flags.String("http-addr", defaultConfig.HTTP.Addr, "host:port to bind the HTTP server to")

	flags.Bool("http-tls-enabled", defaultConfig.HTTP.TLS.Enabled, "serve HTTP over TLS")

	flags.String("http-tls-cert", defaultConfig.HTTP.TLS.CertPath, "absolute path of the TLS certificate")

	flags.String("http-tls-key", defaultConfig.HTTP.TLS.KeyPath, "absolute path of the TLS private key")

	cmd.MarkFlagsRequiredTogether("http-tls-enabled", "http-tls-cert", "http-tls-key")

	flags.Duration("http-upstream-timeout", defaultConfig.HTTP.UpstreamTimeout, "the timeout duration applied to each HTTP request when no overall request timeout is configured")

	flags.StringSlice("http-cors-allowed-origins", defaultConfig.HTTP.CORSAllowedOrigins, "origins allowed by the CORS policy")

	flags.StringSlice("http-cors-allowed-headers", defaultConfig.HTTP.CORSAllowedHeaders, "headers allowed by the CORS policy")

	flags.String("log-format", defaultConfig.Log.Format, "log output format, 'text' or 'json'")

	flags.String("log-level", defaultConfig.Log.Level, "minimum level of logs to emit")

	flags.String("log-timestamp-format", defaultConfig.Log.TimestampFormat, "timestamp layout for log entries, 'Unix' or 'ISO8601'")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "export spans for sampled requests")

	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "otlp collector endpoint to send traces to")

	flags.Bool("trace-otlp-tls-enabled", defaultConfig.Trace.OTLP.TLS.Enabled, "connect to the trace collector over TLS")

	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "fraction of requests to trace, between 0 (none) and 1 (all)")

	flags.Duration("trace-tail-latency", defaultConfig.Trace.TailLatency, "if positive, only traces whose root span took at least this long are exported")

	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "service.name attribute stamped on exported spans")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "serve prometheus metrics on '/metrics'")

	flags.String("metrics-addr", defaultConfig.Metrics.Addr, "host:port to bind the metrics server to")

	flags.Bool("profiler-enabled", defaultConfig.Profiler.Enabled, "serve the pprof profiler")

	flags.String("profiler-addr", defaultConfig.Profiler.Addr, "host:port to bind the profiler to")

	flags.Duration("request-timeout", defaultConfig.RequestTimeout, "overall per-request deadline. Takes precedence over http-upstream-timeout when both are set")

	flags.Int("list-studies-max-page-size", defaultConfig.ListStudiesMaxPageSize, "the maximum page size accepted by the ListStudies endpoint")

	flags.String("continuation-token-cipher-key", defaultConfig.ContinuationTokenCipherKey, "the key used to encrypt continuation tokens so they cannot be forged or inspected. If empty, tokens are only base64 encoded")

	// NOTE: every flag registered above needs a matching bind in bindRunFlagsFunc

	cmd.PreRun = bindRunFlagsFunc(flags)

	return cmd
}

// ReadConfig loads the server configuration from the first 'config.yaml' found
// in '/etc/taskgen', '$HOME/.taskgen', or the current working directory, and
// falls back to the defaults when no file exists.
func ReadConfig() (*serverconfig.Config, error) {
	config := serverconfig.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	if err := viper.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("load server config: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshal server config: %w", err)
	}

	return config, nil
}

func run(_ *cobra.Command, _ []string) {
	config, err := ReadConfig()
	if err != nil {
		panic(err)
	}

	if err := config.Verify(); err != nil {
		panic(err)
	}

	logger := logger.MustNewLogger(config.Log.Format, config.Log.Level, config.Log.TimestampFormat)
	svc := &Service{Logger: logger}
	if err := svc.Run(context.Background(), config); err != nil {
		panic(err)
	}
}

// Service owns everything a running taskgen process needs and tears it all
// down again on shutdown.
type Service struct {
	Logger logger.Logger
}

// telemetryConfig wires up the tracer provider and returns its shutdown hook.
// Call the hook with a healthy context or in-flight spans are lost.
func (s *Service) telemetryConfig(config *serverconfig.Config) func() error {
	if config.Trace.Enabled {
		s.Logger.Info(fmt.Sprintf("🕵 tracing %v of requests, exporting to '%s' (tls: %t)", config.Trace.SampleRatio, config.Trace.OTLP.Endpoint, config.Trace.OTLP.TLS.Enabled))

		options := []telemetry.TracerOption{
			telemetry.WithOTLPEndpoint(
				config.Trace.OTLP.Endpoint,
			),
			telemetry.WithAttributes(
				semconv.ServiceNameKey.String(config.Trace.ServiceName),
				semconv.ServiceVersionKey.String(build.Version),
			),
			telemetry.WithSamplingRatio(config.Trace.SampleRatio),
		}

		if config.Trace.TailLatency > 0 {
			options = append(options, telemetry.WithTailSampling(config.Trace.TailLatency))
		}

		if !config.Trace.OTLP.TLS.Enabled {
			options = append(options, telemetry.WithOTLPInsecure())
		}

		tp := telemetry.MustNewTracerProvider(options...)
		return func() error {
			// flushing the batch span processor can block for up to its 5s export timeout
			// (https://github.com/open-telemetry/opentelemetry-go/blob/aebcbfcbc2962957a578e9cb3e25dc834125e318/sdk/trace/batch_span_processor.go#L97)
			ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
			defer cancel()
			return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
		}
	}
	otel.SetTracerProvider(noop.NewTracerProvider())
	return func() error { return nil }
}

func (s *Service) datastoreConfig(config *serverconfig.Config) (storage.StudyDatastore, error) {
	datastoreOptions := []sqlcommon.DatastoreOption{
		sqlcommon.WithUsername(config.Datastore.Username),
		sqlcommon.WithPassword(config.Datastore.Password),
		sqlcommon.WithLogger(s.Logger),
		sqlcommon.WithMaxOpenConns(config.Datastore.MaxOpenConns),
		sqlcommon.WithMaxIdleConns(config.Datastore.MaxIdleConns),
		sqlcommon.WithConnMaxIdleTime(config.Datastore.ConnMaxIdleTime),
		sqlcommon.WithConnMaxLifetime(config.Datastore.ConnMaxLifetime),
	}

	if config.Datastore.Metrics.Enabled {
		datastoreOptions = append(datastoreOptions, sqlcommon.WithMetrics())
	}

	dsCfg := sqlcommon.NewConfig(datastoreOptions...)

	var datastore storage.StudyDatastore
	var err error
	switch config.Datastore.Engine {
	case "memory":
		datastore = memory.New()
	case "mysql":
		datastore, err = mysql.New(config.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize mysql datastore: %w", err)
		}
	case "postgres":
		datastore, err = postgres.New(config.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres datastore: %w", err)
		}
	case "sqlite":
		datastore, err = sqlite.New(config.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite datastore: %w", err)
		}
	default:
		return nil, fmt.Errorf("storage engine '%s' is unsupported", config.Datastore.Engine)
	}

	s.Logger.Info(fmt.Sprintf("persisting studies in the '%s' datastore", config.Datastore.Engine))

	return datastore, nil
}

func (s *Service) generatorConfig(config *serverconfig.Config) (*iped.Generator, error) {
	generator, err := iped.NewGenerator(
		iped.WithLogger(s.Logger),
		iped.WithPoolCap(config.Generation.PoolCap),
		iped.WithPoolCapGrowth(config.Generation.PoolCapGrowth),
		iped.WithPoolCacheSize(config.Generation.PoolCacheSize),
		iped.WithWorkers(config.Generation.Workers),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize generator: %w", err)
	}
	return generator, nil
}

func (s *Service) tokenEncoderConfig(config *serverconfig.Config) (encoder.Encoder, error) {
	if key := config.ContinuationTokenCipherKey; key != "" {
		gcmEncrypter, err := encrypter.NewGCMEncrypter(key)
		if err != nil {
			return nil, fmt.Errorf("initialize continuation token encrypter: %w", err)
		}

		s.Logger.Info("continuation tokens are encrypted")

		return encoder.NewTokenEncoder(gcmEncrypter, encoder.NewBase64Encoder()), nil
	}
	return encoder.NewBase64Encoder(), nil
}

func (s *Service) runHTTPServer(ctx context.Context, config *serverconfig.Config, svr *server.Server) (*http.Server, error) {
	handler := http.Handler(httpapi.New(svr, s.Logger).Handler())

	if requestTimeout := serverconfig.DefaultContextTimeout(config); requestTimeout > 0 {
		handler = middleware.NewTimeoutHandler(requestTimeout, s.Logger).NewHTTPTimeoutHandler(handler)
	}

	handler = logging.NewHTTPLoggingMiddleware(s.Logger)(handler)
	handler = requestid.NewHTTPMiddleware()(handler)

	if config.Trace.Enabled {
		handler = otelhttp.NewHandler(handler, build.ProjectName)
	}

	httpServer := &http.Server{
		Addr: config.HTTP.Addr,
		Handler: recovery.HTTPPanicRecoveryHandler(cors.New(cors.Options{
			AllowedOrigins:   config.HTTP.CORSAllowedOrigins,
			AllowCredentials: true,
			AllowedHeaders:   config.HTTP.CORSAllowedHeaders,
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost,
				http.MethodHead, http.MethodPatch, http.MethodDelete, http.MethodPut,
			},
		}).Handler(handler), s.Logger),
	}

	listener, err := net.Listen("tcp", config.HTTP.Addr)
	if err != nil {
		return nil, err
	}

	if config.HTTP.TLS.Enabled {
		if config.HTTP.TLS.CertPath == "" || config.HTTP.TLS.KeyPath == "" {
			s.Logger.Fatal("TLS requires both 'http.tls.cert' and 'http.tls.key' to be set")
		}
		getCert, err := newCertificateReloader(ctx, config.HTTP.TLS.CertPath, config.HTTP.TLS.KeyPath, s.Logger)
		if err != nil {
			return nil, err
		}
		listener = tls.NewListener(listener, &tls.Config{
			GetCertificate: getCert,
		})

		s.Logger.Info("TLS is on, HTTP connections use the configured certificate")
	} else {
		s.Logger.Warn("TLS is off, HTTP connections are insecure plaintext")
	}

	go func() {
		s.Logger.Info(fmt.Sprintf("🚀 HTTP server listening on '%s'", httpServer.Addr))
		if err := httpServer.Serve(listener); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.Logger.Fatal("HTTP server failed", zap.Error(err))
			}
		}
		s.Logger.Info("HTTP server stopped")
	}()
	return httpServer, nil
}

// Run starts the configured servers and blocks until ctx is cancelled or a
// termination signal arrives. A nil error means the service came up and later
// shut down cleanly.
func (s *Service) Run(ctx context.Context, config *serverconfig.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, os.Kill, syscall.SIGTERM)
	defer stop()

	tracerProviderCloser := s.telemetryConfig(config)

	datastore, err := s.datastoreConfig(config)
	if err != nil {
		return err
	}

	generator, err := s.generatorConfig(config)
	if err != nil {
		return err
	}

	tokenEncoder, err := s.tokenEncoderConfig(config)
	if err != nil {
		return err
	}

	var profilerServer *http.Server
	if config.Profiler.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

		profilerServer = &http.Server{Addr: config.Profiler.Addr, Handler: mux}

		go func() {
			s.Logger.Info(fmt.Sprintf("🔬 pprof profiler listening on '%s'", config.Profiler.Addr))

			if err := profilerServer.ListenAndServe(); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					s.Logger.Fatal("profiler server failed", zap.Error(err))
				}
			}
			s.Logger.Info("profiler stopped")
		}()
	}

	var metricsServer *http.Server
	if config.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		metricsServer = &http.Server{Addr: config.Metrics.Addr, Handler: mux}

		go func() {
			s.Logger.Info(fmt.Sprintf("📈 prometheus metrics listening on '%s'", config.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					s.Logger.Fatal("metrics server failed", zap.Error(err))
				}
			}
			s.Logger.Info("metrics server stopped")
		}()
	}

	svr := server.MustNewServerWithOpts(
		server.WithDatastore(datastore),
		server.WithGenerator(generator),
		server.WithLogger(s.Logger),
		server.WithTokenEncoder(tokenEncoder),
		server.WithGenerationTimeout(config.Generation.Timeout),
		server.WithMaxListPageSize(int32(config.ListStudiesMaxPageSize)),
	)

	s.Logger.Info(
		"starting taskgen service...",
		zap.String("version", build.Version),
		zap.String("date", build.Date),
		zap.String("commit", build.Commit),
		zap.String("go-version", goruntime.Version()),
		zap.Any("config", config),
	)

	var httpServer *http.Server
	if config.HTTP.Enabled {
		httpServer, err = s.runHTTPServer(ctx, config, svr)
		if err != nil {
			return err
		}
	}

	// block until a termination signal arrives
	<-ctx.Done()
	s.Logger.Info("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.Logger.Info("http server shutdown error", zap.Error(err))
		}
	}

	if profilerServer != nil {
		if err := profilerServer.Shutdown(ctx); err != nil {
			s.Logger.Info("profiler shutdown error", zap.Error(err))
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			s.Logger.Info("metrics server shutdown error", zap.Error(err))
		}
	}

	svr.Close()

	datastore.Close()

	if err := tracerProviderCloser(); err != nil {
		s.Logger.Error("tracing shutdown error", zap.Error(err))
	}

	s.Logger.Info("taskgen exited. goodbye 👋")

	return nil
}

// newCertificateReloader loads the serving certificate and reloads it whenever
// the files beneath it change. The returned callback plugs into
// tls.Config.GetCertificate.
func newCertificateReloader(ctx context.Context, certPath, keyPath string, logger logger.Logger) (func(*tls.ClientHelloInfo) (*tls.Certificate, error), error) {
	log.SetLogger(logr.New(nil))

	watcher, err := certwatcher.New(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("create certificate watcher: %w", err)
	}

	if err := watcher.ReadCertificate(); err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	logger.Info("TLS certificate loaded", zap.String("certPath", certPath), zap.String("keyPath", keyPath))

	go func() {
		logger.Info("watching TLS certificate for changes", zap.String("certPath", certPath), zap.String("keyPath", keyPath))
		if err := watcher.Start(ctx); err != nil {
			logger.Error("certificate watcher failed", zap.Error(err))
		}
	}()

	return func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		return watcher.GetCertificate(nil)
	}, nil
}
