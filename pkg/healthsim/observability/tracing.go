package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("healthsim")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartAdvanceSpan starts a span for one coordinated advance of a
	// linked entity.
	StartAdvanceSpan(ctx context.Context, coreID string, cutoff time.Time) (context.Context, trace.Span)

	// StartEventSpan starts a span for a single event execution. It should
	// be a child of the advance span.
	StartEventSpan(ctx context.Context, product, eventType, eventID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// Configure the provider before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

func (otelSpanManager) StartAdvanceSpan(ctx context.Context, coreID string, cutoff time.Time) (context.Context, trace.Span) {
	return StartAdvanceSpan(ctx, coreID, cutoff)
}

func (otelSpanManager) StartEventSpan(ctx context.Context, product, eventType, eventID string) (context.Context, trace.Span) {
	return StartEventSpan(ctx, product, eventType, eventID)
}

func (otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartAdvanceSpan starts a span named "healthsim.advance" using the
// package tracer.
func StartAdvanceSpan(ctx context.Context, coreID string, cutoff time.Time) (context.Context, trace.Span) {
	return tracer.Start(ctx, "healthsim.advance",
		trace.WithAttributes(
			attribute.String("entity.core_id", coreID),
			attribute.String("advance.cutoff", cutoff.Format(time.DateOnly)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartEventSpan starts a span named "healthsim.event.<product>".
func StartEventSpan(ctx context.Context, product, eventType, eventID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "healthsim.event."+product,
		trace.WithAttributes(
			attribute.String("event.product", product),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
