package recovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/server/errors"
)

func TestPanic(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		panic("matrix builder blew up")
	})

	handler := HTTPPanicRecoveryHandler(boom, logger.MustNewLogger("text", "info", "Unix"))

	resp := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	})

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Equal(t, "application/json", resp.Header().Get("content-type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, errors.CodeInternalError, body["code"])
	require.Equal(t, errors.InternalServerErrorMsg, body["message"])
}

func TestNoPanicPassesThrough(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	handler := HTTPPanicRecoveryHandler(inner, logger.NewNoopLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusTeapot, resp.Code)
}
