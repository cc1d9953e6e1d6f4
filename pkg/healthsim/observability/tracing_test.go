package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("healthsim")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func attrValue(attrs []attribute.KeyValue, key string) string {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value.Emit()
		}
	}
	return ""
}

func TestAdvanceSpan(t *testing.T) {
	exporter := setupTracingTest(t)
	cutoff := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	_, span := StartAdvanceSpan(context.Background(), "core-7", cutoff)
	EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "healthsim.advance", s.Name)
	assert.Equal(t, "core-7", attrValue(s.Attributes, "entity.core_id"))
	assert.Equal(t, "2024-06-30", attrValue(s.Attributes, "advance.cutoff"))
	assert.Equal(t, codes.Ok, s.Status.Code)
}

func TestEventSpanIsChild(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, parent := sm.StartAdvanceSpan(context.Background(), "core-1", time.Now())
	_, child := sm.StartEventSpan(ctx, "membersim", "claim", "evt-1")
	sm.EndSpanWithError(child, errors.New("engine exploded"))
	sm.EndSpanWithError(parent, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	ev := spans[0]
	assert.Equal(t, "healthsim.event.membersim", ev.Name)
	assert.Equal(t, "claim", attrValue(ev.Attributes, "event.type"))
	assert.Equal(t, codes.Error, ev.Status.Code)
	assert.Equal(t, "engine exploded", ev.Status.Description)
	assert.Equal(t, spans[1].SpanContext.SpanID(), ev.Parent.SpanID())
}

func TestAddSpanEvent(t *testing.T) {
	exporter := setupTracingTest(t)

	ctx, span := StartAdvanceSpan(context.Background(), "core-1", time.Now())
	AddSpanEvent(ctx, "trigger.fired", attribute.String("target", "membersim/claim"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "trigger.fired", spans[0].Events[0].Name)

	t.Run("no span in context does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			AddSpanEvent(context.Background(), "orphan")
		})
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() { EndSpanWithError(nil, nil) })
	})
}
