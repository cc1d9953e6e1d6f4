package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records coordination metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEvent records one event outcome (executed, skipped or failed).
	RecordEvent(ctx context.Context, product, status string, duration time.Duration)

	// RecordAdvance records a coordinated advance over one linked entity.
	RecordAdvance(ctx context.Context, success bool, duration time.Duration)

	// RecordTrigger records a fired trigger and whether its event was placed.
	RecordTrigger(ctx context.Context, source, target string, placed bool)

	// RecordSnapshot records a timeline snapshot save.
	RecordSnapshot(ctx context.Context, product string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	events         metric.Int64Counter
	eventLatency   metric.Float64Histogram
	advances       metric.Int64Counter
	advanceLatency metric.Float64Histogram
	triggers       metric.Int64Counter
	snapshotSize   metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("healthsim")

	events, err := meter.Int64Counter("healthsim.event.outcomes",
		metric.WithDescription("Number of timeline events processed, by status"),
	)
	if err != nil {
		return nil, err
	}

	eventLatency, err := meter.Float64Histogram("healthsim.event.latency_ms",
		metric.WithDescription("Engine execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	advances, err := meter.Int64Counter("healthsim.advance.runs",
		metric.WithDescription("Number of coordinated advances"),
	)
	if err != nil {
		return nil, err
	}

	advanceLatency, err := meter.Float64Histogram("healthsim.advance.latency_ms",
		metric.WithDescription("Coordinated advance latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	triggers, err := meter.Int64Counter("healthsim.trigger.fired",
		metric.WithDescription("Number of cross-product triggers fired"),
	)
	if err != nil {
		return nil, err
	}

	snapshotSize, err := meter.Int64Histogram("healthsim.snapshot.size_bytes",
		metric.WithDescription("Timeline snapshot size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		events:         events,
		eventLatency:   eventLatency,
		advances:       advances,
		advanceLatency: advanceLatency,
		triggers:       triggers,
		snapshotSize:   snapshotSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If instrument creation fails it returns NoopMetrics.
//
// Configure the provider first:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEvent records an event outcome.
func (m *otelMetrics) RecordEvent(ctx context.Context, product, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("product", product),
		attribute.String("status", status),
	)
	m.events.Add(ctx, 1, attrs)
	m.eventLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordAdvance records a coordinated advance.
func (m *otelMetrics) RecordAdvance(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.advances.Add(ctx, 1, attrs)
	m.advanceLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordTrigger records a fired trigger.
func (m *otelMetrics) RecordTrigger(ctx context.Context, source, target string, placed bool) {
	m.triggers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("target", target),
		attribute.Bool("placed", placed),
	))
}

// RecordSnapshot records a snapshot save.
func (m *otelMetrics) RecordSnapshot(ctx context.Context, product string, sizeBytes int64) {
	m.snapshotSize.Record(ctx, sizeBytes, metric.WithAttributes(
		attribute.String("product", product),
	))
}
