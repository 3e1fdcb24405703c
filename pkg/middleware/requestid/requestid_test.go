package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestInitIDReturnsUUIDWithoutTrace(t *testing.T) {
	id := InitID(context.Background())

	_, err := uuid.Parse(id)
	require.NoError(t, err)
}

func TestInitIDReturnsTraceID(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	require.Equal(t, traceID.String(), InitID(ctx))
}

func TestHTTPMiddlewareSetsHeaderAndContext(t *testing.T) {
	var ctxID string
	var ok bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID, ok = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := NewHTTPMiddleware()(inner)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, ok)
	require.NotEmpty(t, ctxID)
	require.Equal(t, ctxID, resp.Header().Get(RequestIDHeader))
}

func TestHTTPMiddlewareUniquePerRequest(t *testing.T) {
	handler := NewHTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEqual(t, first.Header().Get(RequestIDHeader), second.Header().Get(RequestIDHeader))
}
