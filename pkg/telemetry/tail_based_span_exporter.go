package telemetry

import (
	"context"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const DefaultTailLatency = time.Second

// tailLatencySpanExporter forwards a trace to the wrapped exporter only when
// the trace's root span lasted at least the configured latency. The decision
// is made per batch, so child spans that arrive in a batch without their root
// span are dropped.
type tailLatencySpanExporter struct {
	wrapped sdktrace.SpanExporter

	latency time.Duration
}

var _ sdktrace.SpanExporter = (*tailLatencySpanExporter)(nil)

// NewTailLatencySpanExporter wraps exporter so that only traces slower than
// latency are exported. A non-positive latency falls back to
// DefaultTailLatency. A nil exporter discards everything.
func NewTailLatencySpanExporter(exporter sdktrace.SpanExporter, latency time.Duration) *tailLatencySpanExporter {
	if latency <= 0 {
		latency = DefaultTailLatency
	}

	return &tailLatencySpanExporter{
		wrapped: exporter,
		latency: latency,
	}
}

func (t *tailLatencySpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if t.wrapped == nil {
		return nil
	}

	slowTraces := make(map[trace.TraceID]struct{})
	for _, span := range spans {
		if span.Parent().IsValid() {
			continue
		}
		if span.EndTime().Sub(span.StartTime()) >= t.latency {
			slowTraces[span.SpanContext().TraceID()] = struct{}{}
		}
	}

	keep := make([]sdktrace.ReadOnlySpan, 0, len(spans))
	for _, span := range spans {
		if _, ok := slowTraces[span.SpanContext().TraceID()]; ok {
			keep = append(keep, span)
		}
	}

	return t.wrapped.ExportSpans(ctx, keep)
}

func (t *tailLatencySpanExporter) Shutdown(ctx context.Context) error {
	if t.wrapped == nil {
		return nil
	}
	return t.wrapped.Shutdown(ctx)
}
