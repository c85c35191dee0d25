package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

// InitLogger returns an slog.Handler that ships records to the OTLP
// collector, or a nil handler when OTEL_EXPORTER_OTLP_ENDPOINT is unset.
func InitLogger(ctx context.Context, res *resource.Resource) (slog.Handler, ShutdownFunc, error) {
	if !OTLPEnabled() {
		return nil, noopShutdown, nil
	}

	exp, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OTLP log exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
	)
	handler := otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(lp))
	return handler, lp.Shutdown, nil
}
