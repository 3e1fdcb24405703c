package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type TracerOption func(c *tracerConfig)

func WithOTLPEndpoint(endpoint string) TracerOption {
	return func(c *tracerConfig) {
		c.endpoint = endpoint
	}
}

// WithOTLPInsecure disables client transport security for the exporter's gRPC
// connection.
func WithOTLPInsecure() TracerOption {
	return func(c *tracerConfig) {
		c.insecure = true
	}
}

func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *tracerConfig) {
		c.attributes = append(c.attributes, attrs...)
	}
}

func WithSamplingRatio(ratio float64) TracerOption {
	return func(c *tracerConfig) {
		c.sampleRatio = ratio
	}
}

// WithTailSampling drops every trace whose root span completed faster than
// minLatency. A zero duration exports all sampled traces.
func WithTailSampling(minLatency time.Duration) TracerOption {
	return func(c *tracerConfig) {
		c.tailLatency = minLatency
	}
}

type tracerConfig struct {
	endpoint   string
	insecure   bool
	attributes []attribute.KeyValue

	sampleRatio float64
	tailLatency time.Duration
}

func MustNewTracerProvider(opts ...TracerOption) *sdktrace.TracerProvider {
	cfg := &tracerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(cfg.attributes...),
	)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	exporterOpts := []otlptracegrpc.Option{}
	if cfg.endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithEndpoint(cfg.endpoint))
	}
	if cfg.insecure {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
	}

	var exp sdktrace.SpanExporter
	exp, err = otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		panic(fmt.Sprintf("connect otlp exporter: %v", err))
	}

	if cfg.tailLatency > 0 {
		exp = NewTailLatencySpanExporter(exp, cfg.tailLatency)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.sampleRatio)),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp)),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	otel.SetTracerProvider(tp)

	return tp
}

func TraceError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
