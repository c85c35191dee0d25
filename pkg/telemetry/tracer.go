package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName is reported on every signal.
const ServiceName = "ynab-mcp"

// ShutdownFunc flushes and closes a provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// OTLPEnabled reports whether an OTLP collector endpoint is configured.
func OTLPEnabled() bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// NewResource describes this process for all providers. Attributes from
// OTEL_RESOURCE_ATTRIBUTES are merged in.
func NewResource(version string) (*resource.Resource, error) {
	res, err := resource.New(context.Background(),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	return res, nil
}

// InitTracer initializes the OpenTelemetry TracerProvider.
// If OTEL_EXPORTER_OTLP_ENDPOINT is set, it creates an OTLP gRPC exporter.
// If not set, tracing is disabled (noop tracer) and the server operates normally.
// Returns a shutdown function that flushes pending spans.
func InitTracer(ctx context.Context, res *resource.Resource) (ShutdownFunc, error) {
	if !OTLPEnabled() {
		slog.Info("telemetry: tracing disabled (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
		return noopShutdown, nil
	}

	exporter, err := otlptracegrpc.New(ctx) // reads OTEL_EXPORTER_OTLP_ENDPOINT automatically
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	slog.Info("telemetry: tracing enabled", "endpoint", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	return tp.Shutdown, nil
}
