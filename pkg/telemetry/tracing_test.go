package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
)

func TestTracing(t *testing.T) {
	tp := MustNewTracerProvider(
		WithAttributes(
			semconv.ServiceNameKey.String("taskgen-test"),
			semconv.ServiceVersionKey.String("1.2.3"),
		),
		WithSamplingRatio(1),
	)

	recorder := tracetest.NewSpanRecorder()
	tp.RegisterSpanProcessor(recorder)

	_, span := tp.Tracer("").Start(context.Background(), "generate_matrix")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "generate_matrix", spans[0].Name())
}

func TestTraceError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	_, span := tp.Tracer("").Start(context.Background(), "op")
	TraceError(span, errors.New("boom"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status.Code)
	require.Equal(t, "boom", spans[0].Status.Description)
}
