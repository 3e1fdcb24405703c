package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/logger"
)

func TestHTTPTimeoutHandlerSetsDeadline(t *testing.T) {
	h := NewTimeoutHandler(3*time.Second, logger.NewNoopLogger())

	var deadlineSet bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadlineSet = r.Context().Deadline()
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	h.NewHTTPTimeoutHandler(inner).ServeHTTP(resp, req)

	require.True(t, deadlineSet)
	require.Equal(t, http.StatusNoContent, resp.Code)
}

func TestHTTPTimeoutHandlerExpiresContext(t *testing.T) {
	h := NewTimeoutHandler(time.Nanosecond, logger.NewNoopLogger())

	done := make(chan error, 1)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		done <- r.Context().Err()
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.NewHTTPTimeoutHandler(inner).ServeHTTP(httptest.NewRecorder(), req)

	require.ErrorIs(t, <-done, context.DeadlineExceeded)
}
