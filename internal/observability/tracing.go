// Package observability provides OpenTelemetry tracing, Prometheus metrics,
// and audit logging for girder.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name used for the girder tracer.
	TracerName = "girder"
)

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// ServiceName is the name of the service (default: "girder")
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, prod)
	Environment string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317")
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "girder",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	// If no endpoint, return no-op tracer
	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{
			tracer: otel.Tracer(TracerName),
		}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(), // Use TLS in production
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Span kinds for girder pipeline stages.
const (
	SpanKindIngest   = "ingest"
	SpanKindBuild    = "build"
	SpanKindCycles   = "cycles"
	SpanKindCoupling = "coupling"
	SpanKindLayers   = "layers"
	SpanKindRender   = "render"
	SpanKindExport   = "export"
	SpanKindGates    = "gates"
	SpanKindAnalyze  = "analyze"
)

// StartIngestSpan starts a span for reading a fact set.
func StartIngestSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, "facts.ingest",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("girder.span.kind", SpanKindIngest),
			attribute.String("facts.source", source),
		),
	)
}

// RecordIngestResult records fact counts on an ingest span.
func RecordIngestResult(span trace.Span, moduleFacts, edgeFacts int) {
	span.SetAttributes(
		attribute.Int("facts.modules", moduleFacts),
		attribute.Int("facts.edges", edgeFacts),
	)
}

// StartBuildSpan starts a span for graph construction.
func StartBuildSpan(ctx context.Context) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, "graph.build",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("girder.span.kind", SpanKindBuild)),
	)
}

// RecordBuildResult records graph size on a build span.
func RecordBuildResult(span trace.Span, moduleCount, edgeCount int) {
	span.SetAttributes(
		attribute.Int("graph.module_count", moduleCount),
		attribute.Int("graph.edge_count", edgeCount),
	)
}

// StartAnalysisSpan starts a span for one analysis stage (cycles, coupling,
// layers) or the combined run.
func StartAnalysisSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, fmt.Sprintf("analysis.%s", stage),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("girder.span.kind", stage),
		),
	)
}

// RecordCycleResult records cycle detection output on a span.
func RecordCycleResult(span trace.Span, cycleCount int) {
	span.SetAttributes(attribute.Int("cycles.count", cycleCount))
	if cycleCount > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d circular dependencies", cycleCount))
	}
}

// RecordCouplingResult records coupling output on a span.
func RecordCouplingResult(span trace.Span, moduleCount int, averageInstability float64) {
	span.SetAttributes(
		attribute.Int("coupling.module_count", moduleCount),
		attribute.Float64("coupling.average_instability", averageInstability),
	)
}

// RecordLayerResult records layer validation output on a span.
func RecordLayerResult(span trace.Span, violationCount int) {
	span.SetAttributes(attribute.Int("layers.violation_count", violationCount))
	if violationCount > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d layer violations", violationCount))
	}
}

// StartRenderSpan starts a span for diagram rendering.
func StartRenderSpan(ctx context.Context, format string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, "diagram.render",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("girder.span.kind", SpanKindRender),
			attribute.String("diagram.format", format),
		),
	)
}

// StartExportSpan starts a span for a graph store export.
func StartExportSpan(ctx context.Context, target string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, "graph.export",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("girder.span.kind", SpanKindExport),
			attribute.String("export.target", target),
		),
	)
}

// StartGatesSpan starts a span for quality gate evaluation.
func StartGatesSpan(ctx context.Context) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, "gates.evaluate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("girder.span.kind", SpanKindGates)),
	)
}

// RecordGateResult records gate pipeline outcome on a span.
func RecordGateResult(span trace.Span, passed, failed, warnings int) {
	span.SetAttributes(
		attribute.Int("gates.passed", passed),
		attribute.Int("gates.failed", failed),
		attribute.Int("gates.warnings", warnings),
	)
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d gates failed", failed))
	}
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
