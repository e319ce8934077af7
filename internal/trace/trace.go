package trace

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "trade-reconciler"
	serviceVersion = "1.0.0"
)

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	enabled        bool
)

// Init installs a stdout span exporter when LOG_TRACING_ENABLED is not "false".
// Spans go to stderr so they never mix with reconciled output on stdout.
func Init() error {
	enabled = getEnv("LOG_TRACING_ENABLED", "true") == "true"
	if !enabled {
		return nil
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		enabled = false
		return err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		enabled = false
		return err
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = otel.Tracer(serviceName)
	return nil
}

func Shutdown(ctx context.Context) error {
	if tracerProvider != nil {
		return tracerProvider.Shutdown(ctx)
	}
	return nil
}

func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, opts...)
}

// Batch is the outcome of one reconciliation run as recorded on its span.
type Batch struct {
	Orders     int
	Symbols    int
	Trades     int
	Incomplete int
	Warnings   int
	GrossPnL   float64
	NetPnL     float64
}

func (b Batch) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("reconcile.orders", b.Orders),
		attribute.Int("reconcile.symbols", b.Symbols),
		attribute.Int("reconcile.trades", b.Trades),
		attribute.Int("reconcile.incomplete", b.Incomplete),
		attribute.Int("reconcile.warnings", b.Warnings),
		attribute.Float64("reconcile.gross_pnl", b.GrossPnL),
		attribute.Float64("reconcile.net_pnl", b.NetPnL),
	}
}

// RecordBatch tags span with the batch counts. A batch that produced
// warnings or left orders open is still a successful span.
func RecordBatch(span trace.Span, b Batch) {
	if !enabled || !span.IsRecording() {
		return
	}
	span.SetAttributes(b.attributes()...)
}

func Enabled() bool {
	return enabled
}

func GetTraceFields(ctx context.Context) (traceID, spanID string, ok bool) {
	if !enabled {
		return "", "", false
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return "", "", false
	}
	return span.SpanContext().TraceID().String(),
		span.SpanContext().SpanID().String(),
		true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
