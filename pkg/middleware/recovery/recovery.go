package recovery

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/server/errors"
)

// HTTPPanicRecoveryHandler catches a panic raised by next, logs it with its
// stack and answers the request with a generic JSON 500.
func HTTPPanicRecoveryHandler(next http.Handler, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}

			l.Error("panic in request handler",
				zap.Any("panic", p),
				zap.ByteString("stacktrace", debug.Stack()),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)

			body, err := json.Marshal(map[string]string{
				"code":    errors.CodeInternalError,
				"message": errors.InternalServerErrorMsg,
			})
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			w.Header().Set("content-type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write(body)
		}()

		next.ServeHTTP(w, r)
	})
}
