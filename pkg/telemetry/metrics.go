package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// WithAttrs returns a metric.MeasurementOption from attribute key-value pairs.
func WithAttrs(attrs ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(attrs...)
}

// Meters holds pre-created OTel metric instruments for MCP server instrumentation.
type Meters struct {
	// GenAI semantic convention metrics
	RequestDuration metric.Float64Histogram
	RequestCount    metric.Int64Counter

	// Custom domain metrics
	ErrorsTotal         metric.Int64Counter
	RateLimitRejections metric.Int64Counter

	meter metric.Meter
}

// NewMeters creates all OTel metric instruments for MCP server instrumentation.
func NewMeters(mp metric.MeterProvider) (*Meters, error) {
	meter := mp.Meter(ServiceName)

	requestDuration, err := meter.Float64Histogram(
		"gen_ai.server.request.duration",
		metric.WithDescription("Duration of MCP tool call execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"gen_ai.server.request.count",
		metric.WithDescription("Number of MCP tool call requests"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		"mcp.errors.total",
		metric.WithDescription("Total tool execution errors"),
	)
	if err != nil {
		return nil, err
	}

	rejections, err := meter.Int64Counter(
		"ynab.ratelimit.rejections",
		metric.WithDescription("Remote calls refused by the client-side rate limiter"),
	)
	if err != nil {
		return nil, err
	}

	return &Meters{
		RequestDuration:     requestDuration,
		RequestCount:        requestCount,
		ErrorsTotal:         errorsTotal,
		RateLimitRejections: rejections,
		meter:               meter,
	}, nil
}

// ObserveRemaining registers a gauge reporting the requests still admissible
// in the current rate-limit window.
func (m *Meters) ObserveRemaining(remaining func() int) error {
	_, err := m.meter.Int64ObservableGauge(
		"ynab.ratelimit.remaining",
		metric.WithDescription("Requests remaining in the current rate-limit window"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(remaining()))
			return nil
		}),
	)
	return err
}
