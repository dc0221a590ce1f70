package telemetry

import (
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TracerName is the instrumentation scope of orchestrator spans.
const TracerName = "github.com/globalapptesting/hrl-go"

// Tracer returns the orchestrator tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// TraceConfig configures a trace pipeline.
type TraceConfig struct {
	ServiceName    string
	ServiceVersion string
	// SampleRate in [0,1]. Values outside the range are clamped.
	SampleRate float64

	// Output and PrettyPrint configure the stdout exporter.
	Output      io.Writer
	PrettyPrint bool

	// Endpoint and Insecure configure the OTLP exporter.
	Endpoint string
	Insecure bool
}

// Shutdown flushes and stops a pipeline.
type Shutdown func(context.Context) error

// InstallStdoutTracing installs a global tracer provider that writes spans to
// cfg.Output. The returned Shutdown must be called to flush pending spans.
func InstallStdoutTracing(cfg TraceConfig) (Shutdown, error) {
	if cfg.Output == nil {
		return nil, errors.New("trace output is required")
	}

	opts := []stdouttrace.Option{stdouttrace.WithWriter(cfg.Output)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, err
	}

	tp := NewTracerProvider(exporter, cfg)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// InstallOTLPTracing installs a global tracer provider that batches spans to
// an OTLP/gRPC collector at cfg.Endpoint.
func InstallOTLPTracing(ctx context.Context, cfg TraceConfig) (Shutdown, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("otlp endpoint is required")
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlptracegrpc.WithInsecure(),
		)
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	tp := newProvider(cfg, sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// NewTracerProvider builds a synchronous tracer provider around exporter.
func NewTracerProvider(exporter sdktrace.SpanExporter, cfg TraceConfig) *sdktrace.TracerProvider {
	return newProvider(cfg, sdktrace.WithSyncer(exporter))
}

func newProvider(cfg TraceConfig, export sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	return sdktrace.NewTracerProvider(
		export,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
}

// StartSpan starts an orchestrator span with the given attributes.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer()
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
