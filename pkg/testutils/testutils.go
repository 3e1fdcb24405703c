// Package testutils holds small helpers shared by tests across the module.
package testutils

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/require"

	serverconfig "github.com/mindsurve/taskgen/pkg/server/config"
)

const alphanumerics = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CreateRandomString returns n random alphanumeric characters, handy as a
// throwaway study name.
func CreateRandomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumerics[rand.Intn(len(alphanumerics))]
	}
	return string(b)
}

// EnsureServiceHealthy is a test helper that ensures that a service's http health
// endpoint is responding OK. If the service doesn't respond healthy in 30 seconds
// it fails the test.
func EnsureServiceHealthy(t testing.TB, httpAddr string) {
	t.Helper()

	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 30
	client.RetryWaitMax = time.Second

	t.Log("probing health endpoint at", httpAddr)
	resp, err := client.Get(fmt.Sprintf("http://%s/healthz", httpAddr))
	require.NoError(t, err, "health request never succeeded")

	t.Cleanup(func() {
		err := resp.Body.Close()
		require.NoError(t, err)
	})

	require.Equal(t, http.StatusOK, resp.StatusCode, "health endpoint returned a non-OK status")
}

// MustDefaultConfigWithRandomPorts returns the default server config with the
// HTTP and metrics listeners moved to free random ports, so parallel test
// servers do not collide. Panics when no port can be grabbed.
func MustDefaultConfigWithRandomPorts() *serverconfig.Config {
	config := serverconfig.MustDefaultConfig()

	httpPort, releaseHTTP := TCPRandomPort()
	defer releaseHTTP()
	metricsPort, releaseMetrics := TCPRandomPort()
	defer releaseMetrics()

	config.HTTP.Addr = fmt.Sprintf("localhost:%d", httpPort)
	config.Metrics.Addr = fmt.Sprintf("localhost:%d", metricsPort)

	return config
}

// TCPRandomPort grabs a free TCP port and returns it with a release callback.
// Call the callback right before listening on the port.
func TCPRandomPort() (int, func()) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		panic(err)
	}

	return l.Addr().(*net.TCPAddr).Port, func() { _ = l.Close() }
}
