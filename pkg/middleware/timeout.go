package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/mindsurve/taskgen/pkg/logger"
)

// TimeoutHandler sets the timeout in each request
type TimeoutHandler struct {
	timeout time.Duration
	logger  logger.Logger
}

// NewTimeoutHandler returns new TimeoutHandler that timeouts request if it
// exceeds the timeout value
func NewTimeoutHandler(timeout time.Duration, logger logger.Logger) *TimeoutHandler {
	return &TimeoutHandler{
		timeout: timeout,
		logger:  logger,
	}
}

// NewHTTPTimeoutHandler bounds the context of each request with the
// configured timeout. We need to use this middleware instead of
// http.TimeoutHandler to allow handlers to map the deadline onto the
// proper error code.
func (h *TimeoutHandler) NewHTTPTimeoutHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
