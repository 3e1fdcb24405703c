// Package logging emits one structured entry per completed HTTP request.
package logging

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/middleware/requestid"
)

const (
	httpMethodKey      = "http_method"
	httpPathKey        = "http_path"
	httpStatusKey      = "http_status"
	requestIDKey       = "request_id"
	traceIDKey         = "trace_id"
	userAgentKey       = "user_agent"
	queryDurationKey   = "query_duration_ms"
	httpReqCompleteKey = "http_req_complete"

	healthCheckPath = "/healthz"
)

// statusRecorder captures the response code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// NewHTTPLoggingMiddleware logs every request once it completes. Server
// errors are logged at error level, everything else at info. Health
// probes are skipped so they do not drown out the rest of the log.
func NewHTTPLoggingMiddleware(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == healthCheckPath {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			fields := []zap.Field{
				zap.String(httpMethodKey, r.Method),
				zap.String(httpPathKey, r.URL.Path),
				zap.Int(httpStatusKey, recorder.status),
				zap.String(queryDurationKey, strconv.FormatInt(time.Since(start).Milliseconds(), 10)),
			}

			if userAgent := r.UserAgent(); userAgent != "" {
				fields = append(fields, zap.String(userAgentKey, userAgent))
			}

			if id, ok := requestid.FromContext(r.Context()); ok {
				fields = append(fields, zap.String(requestIDKey, id))
			}

			spanCtx := trace.SpanContextFromContext(r.Context())
			if spanCtx.HasTraceID() {
				fields = append(fields, zap.String(traceIDKey, spanCtx.TraceID().String()))
			}

			if recorder.status >= http.StatusInternalServerError {
				l.Error(httpReqCompleteKey, fields...)
				return
			}
			l.Info(httpReqCompleteKey, fields...)
		})
	}
}
