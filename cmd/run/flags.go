package run

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mindsurve/taskgen/cmd/util"
)

// bindRunFlagsFunc connects every run flag to its viper config key and the
// TASKGEN_ environment variables that may also set it.
func bindRunFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		util.MustBindPFlag("datastore.engine", flags.Lookup("datastore-engine"))
		util.MustBindEnv("datastore.engine", "TASKGEN_DATASTORE_ENGINE")

		util.MustBindPFlag("datastore.uri", flags.Lookup("datastore-uri"))
		util.MustBindEnv("datastore.uri", "TASKGEN_DATASTORE_URI")

		util.MustBindPFlag("datastore.username", flags.Lookup("datastore-username"))
		util.MustBindEnv("datastore.username", "TASKGEN_DATASTORE_USERNAME")

		util.MustBindPFlag("datastore.password", flags.Lookup("datastore-password"))
		util.MustBindEnv("datastore.password", "TASKGEN_DATASTORE_PASSWORD")

		util.MustBindPFlag("datastore.maxOpenConns", flags.Lookup("datastore-max-open-conns"))
		util.MustBindEnv("datastore.maxOpenConns", "TASKGEN_DATASTORE_MAX_OPEN_CONNS", "TASKGEN_DATASTORE_MAXOPENCONNS")

		util.MustBindPFlag("datastore.maxIdleConns", flags.Lookup("datastore-max-idle-conns"))
		util.MustBindEnv("datastore.maxIdleConns", "TASKGEN_DATASTORE_MAX_IDLE_CONNS", "TASKGEN_DATASTORE_MAXIDLECONNS")

		util.MustBindPFlag("datastore.connMaxIdleTime", flags.Lookup("datastore-conn-max-idle-time"))
		util.MustBindEnv("datastore.connMaxIdleTime", "TASKGEN_DATASTORE_CONN_MAX_IDLE_TIME", "TASKGEN_DATASTORE_CONNMAXIDLETIME")

		util.MustBindPFlag("datastore.connMaxLifetime", flags.Lookup("datastore-conn-max-lifetime"))
		util.MustBindEnv("datastore.connMaxLifetime", "TASKGEN_DATASTORE_CONN_MAX_LIFETIME", "TASKGEN_DATASTORE_CONNMAXLIFETIME")

		util.MustBindPFlag("datastore.metrics.enabled", flags.Lookup("datastore-metrics-enabled"))
		util.MustBindEnv("datastore.metrics.enabled", "TASKGEN_DATASTORE_METRICS_ENABLED")

		util.MustBindPFlag("generation.timeout", flags.Lookup("generation-timeout"))
		util.MustBindEnv("generation.timeout", "TASKGEN_GENERATION_TIMEOUT")

		util.MustBindPFlag("generation.poolCap", flags.Lookup("generation-pool-cap"))
		util.MustBindEnv("generation.poolCap", "TASKGEN_GENERATION_POOL_CAP", "TASKGEN_GENERATION_POOLCAP")

		util.MustBindPFlag("generation.poolCapGrowth", flags.Lookup("generation-pool-cap-growth"))
		util.MustBindEnv("generation.poolCapGrowth", "TASKGEN_GENERATION_POOL_CAP_GROWTH", "TASKGEN_GENERATION_POOLCAPGROWTH")

		util.MustBindPFlag("generation.poolCacheSize", flags.Lookup("generation-pool-cache-size"))
		util.MustBindEnv("generation.poolCacheSize", "TASKGEN_GENERATION_POOL_CACHE_SIZE", "TASKGEN_GENERATION_POOLCACHESIZE")

		util.MustBindPFlag("generation.workers", flags.Lookup("generation-workers"))
		util.MustBindEnv("generation.workers", "TASKGEN_GENERATION_WORKERS")

		util.MustBindPFlag("http.enabled", flags.Lookup("http-enabled"))
		util.MustBindEnv("http.enabled", "TASKGEN_HTTP_ENABLED")

		util.MustBindPFlag("http.addr", flags.Lookup("http-addr"))
		util.MustBindEnv("http.addr", "TASKGEN_HTTP_ADDR")

		util.MustBindPFlag("http.tls.enabled", flags.Lookup("http-tls-enabled"))
		util.MustBindEnv("http.tls.enabled", "TASKGEN_HTTP_TLS_ENABLED")

		util.MustBindPFlag("http.tls.cert", flags.Lookup("http-tls-cert"))
		util.MustBindEnv("http.tls.cert", "TASKGEN_HTTP_TLS_CERT")

		util.MustBindPFlag("http.tls.key", flags.Lookup("http-tls-key"))
		util.MustBindEnv("http.tls.key", "TASKGEN_HTTP_TLS_KEY")

		util.MustBindPFlag("http.upstreamTimeout", flags.Lookup("http-upstream-timeout"))
		util.MustBindEnv("http.upstreamTimeout", "TASKGEN_HTTP_UPSTREAM_TIMEOUT", "TASKGEN_HTTP_UPSTREAMTIMEOUT")

		util.MustBindPFlag("http.corsAllowedOrigins", flags.Lookup("http-cors-allowed-origins"))
		util.MustBindEnv("http.corsAllowedOrigins", "TASKGEN_HTTP_CORS_ALLOWED_ORIGINS", "TASKGEN_HTTP_CORSALLOWEDORIGINS")

		util.MustBindPFlag("http.corsAllowedHeaders", flags.Lookup("http-cors-allowed-headers"))
		util.MustBindEnv("http.corsAllowedHeaders", "TASKGEN_HTTP_CORS_ALLOWED_HEADERS", "TASKGEN_HTTP_CORSALLOWEDHEADERS")

		util.MustBindPFlag("log.format", flags.Lookup("log-format"))
		util.MustBindEnv("log.format", "TASKGEN_LOG_FORMAT")

		util.MustBindPFlag("log.level", flags.Lookup("log-level"))
		util.MustBindEnv("log.level", "TASKGEN_LOG_LEVEL")

		util.MustBindPFlag("log.timestampFormat", flags.Lookup("log-timestamp-format"))
		util.MustBindEnv("log.timestampFormat", "TASKGEN_LOG_TIMESTAMP_FORMAT", "TASKGEN_LOG_TIMESTAMPFORMAT")

		util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
		util.MustBindEnv("trace.enabled", "TASKGEN_TRACE_ENABLED")

		util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
		util.MustBindEnv("trace.otlp.endpoint", "TASKGEN_TRACE_OTLP_ENDPOINT")

		util.MustBindPFlag("trace.otlp.tls.enabled", flags.Lookup("trace-otlp-tls-enabled"))
		util.MustBindEnv("trace.otlp.tls.enabled", "TASKGEN_TRACE_OTLP_TLS_ENABLED")

		util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
		util.MustBindEnv("trace.sampleRatio", "TASKGEN_TRACE_SAMPLE_RATIO", "TASKGEN_TRACE_SAMPLERATIO")

		util.MustBindPFlag("trace.tailLatency", flags.Lookup("trace-tail-latency"))
		util.MustBindEnv("trace.tailLatency", "TASKGEN_TRACE_TAIL_LATENCY", "TASKGEN_TRACE_TAILLATENCY")

		util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
		util.MustBindEnv("trace.serviceName", "TASKGEN_TRACE_SERVICE_NAME", "TASKGEN_TRACE_SERVICENAME")

		util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
		util.MustBindEnv("metrics.enabled", "TASKGEN_METRICS_ENABLED")

		util.MustBindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
		util.MustBindEnv("metrics.addr", "TASKGEN_METRICS_ADDR")

		util.MustBindPFlag("profiler.enabled", flags.Lookup("profiler-enabled"))
		util.MustBindEnv("profiler.enabled", "TASKGEN_PROFILER_ENABLED")

		util.MustBindPFlag("profiler.addr", flags.Lookup("profiler-addr"))
		util.MustBindEnv("profiler.addr", "TASKGEN_PROFILER_ADDR")

		util.MustBindPFlag("requestTimeout", flags.Lookup("request-timeout"))
		util.MustBindEnv("requestTimeout", "TASKGEN_REQUEST_TIMEOUT", "TASKGEN_REQUESTTIMEOUT")

		util.MustBindPFlag("listStudiesMaxPageSize", flags.Lookup("list-studies-max-page-size"))
		util.MustBindEnv("listStudiesMaxPageSize", "TASKGEN_LIST_STUDIES_MAX_PAGE_SIZE", "TASKGEN_LISTSTUDIESMAXPAGESIZE")

		util.MustBindPFlag("continuationTokenCipherKey", flags.Lookup("continuation-token-cipher-key"))
		util.MustBindEnv("continuationTokenCipherKey", "TASKGEN_CONTINUATION_TOKEN_CIPHER_KEY", "TASKGEN_CONTINUATIONTOKENCIPHERKEY")
	}
}
