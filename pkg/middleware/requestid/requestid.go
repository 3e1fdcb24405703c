// Package requestid assigns every request a unique identifier and makes it
// available to handlers, log entries, and the response. The ID is reused
// from the active trace when tracing is enabled so the two correlate.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mindsurve/taskgen/pkg/logger"
)

const (
	// requestIDKey names the log field and span attribute carrying the ID.
	requestIDKey = "request_id"

	// RequestIDHeader is the HTTP response header carrying the ID assigned
	// to the request.
	RequestIDHeader = "X-Request-Id"
)

type ctxKey struct{}

// InitID picks the identifier for a request. Traced requests reuse their
// trace ID so logs and spans line up, everything else gets a fresh UUID.
func InitID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.TraceID().IsValid() {
		return sc.TraceID().String()
	}
	id, _ := uuid.NewRandom()
	return id.String()
}

// FromContext returns the request ID assigned by the middleware, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}

// NewHTTPMiddleware assigns each request an ID, stores it on the request
// context and the context log fields, and echoes it in the X-Request-Id
// response header.
func NewHTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := InitID(r.Context())

			ctx := context.WithValue(r.Context(), ctxKey{}, requestID)
			ctx = logger.ContextWithFields(ctx, zap.String(requestIDKey, requestID))

			trace.SpanFromContext(ctx).SetAttributes(attribute.String(requestIDKey, requestID))

			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
