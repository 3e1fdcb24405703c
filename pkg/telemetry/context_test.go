package telemetry

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKnownRequestInfo(t *testing.T) {
	info := RequestInfo{
		Method: http.MethodPost,
		Route:  "/api/generate-tasks",
	}
	ctx := ContextWithRequestInfo(context.Background(), info)

	output := RequestInfoFromContext(ctx)
	require.Equal(t, info, output)
}

func TestUnknownRequestInfo(t *testing.T) {
	output := RequestInfoFromContext(context.Background())
	require.Equal(t, RequestInfo{
		Method: "unknown",
		Route:  "unknown",
	}, output)
}
