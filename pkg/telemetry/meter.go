package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Metric exporters selectable by configuration.
const (
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
	ExporterNone       = "none"
)

// MeterSetup is the result of InitMeterProvider.
type MeterSetup struct {
	Provider metric.MeterProvider
	Shutdown ShutdownFunc

	// Handler serves the Prometheus scrape endpoint. It is nil unless the
	// prometheus exporter is selected.
	Handler http.Handler
}

// InitMeterProvider builds the MeterProvider for the chosen exporter and
// registers it globally. The otlp exporter degrades to a no-op provider when
// OTEL_EXPORTER_OTLP_ENDPOINT is unset.
func InitMeterProvider(ctx context.Context, exporter string, res *resource.Resource) (*MeterSetup, error) {
	switch exporter {
	case ExporterNone:
		return noopMeters(), nil

	case ExporterPrometheus:
		reg := prometheus.NewRegistry()
		promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(promExp),
		)
		otel.SetMeterProvider(mp)
		slog.Info("telemetry: metrics exposed for prometheus scraping")
		return &MeterSetup{
			Provider: mp,
			Shutdown: mp.Shutdown,
			Handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}, nil

	case ExporterOTLP, "":
		if !OTLPEnabled() {
			slog.Info("telemetry: metrics disabled (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
			return noopMeters(), nil
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		)
		otel.SetMeterProvider(mp)
		slog.Info("telemetry: metrics enabled", "exporter", ExporterOTLP)
		return &MeterSetup{Provider: mp, Shutdown: mp.Shutdown}, nil

	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", exporter)
	}
}

func noopMeters() *MeterSetup {
	return &MeterSetup{Provider: noop.NewMeterProvider(), Shutdown: noopShutdown}
}
