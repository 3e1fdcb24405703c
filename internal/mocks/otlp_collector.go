package mocks

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"testing"

	otlpcollector "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
)

// otlpCollector accepts OTLP trace exports and counts them so tests can
// assert that spans were flushed.
type otlpCollector struct {
	otlpcollector.UnimplementedTraceServiceServer
	exports atomic.Int64
}

var _ otlpcollector.TraceServiceServer = (*otlpCollector)(nil)

func (c *otlpCollector) Export(context.Context, *otlpcollector.ExportTraceServiceRequest) (*otlpcollector.ExportTraceServiceResponse, error) {
	c.exports.Add(1)
	return &otlpcollector.ExportTraceServiceResponse{}, nil
}

// ExportCount returns how many export batches arrived so far.
func (c *otlpCollector) ExportCount() int {
	return int(c.exports.Load())
}

// NewOTLPCollector starts an OTLP trace collector on the given port and
// stops it when the test finishes.
func NewOTLPCollector(t testing.TB, port int) *otlpCollector {
	t.Helper()

	collector := &otlpCollector{}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		t.Fatalf("listen on otlp port %d: %v", port, err)
	}

	srv := grpc.NewServer()
	otlpcollector.RegisterTraceServiceServer(srv, collector)
	t.Cleanup(srv.Stop)

	go func() {
		// Serve returns nil once Stop is called.
		_ = srv.Serve(ln)
	}()

	return collector
}
