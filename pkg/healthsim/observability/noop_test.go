package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordEvent(ctx, "patientsim", "executed", time.Second)
		m.RecordAdvance(ctx, false, time.Second)
		m.RecordTrigger(ctx, "a/b", "c/d", false)
		m.RecordSnapshot(ctx, "patientsim", 10)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var sm SpanManager = NoopSpanManager{}
	ctx := context.Background()

	newCtx, span := sm.StartAdvanceSpan(ctx, "core-1", time.Now())
	assert.Equal(t, ctx, newCtx)
	assert.False(t, span.IsRecording())

	newCtx, span = sm.StartEventSpan(ctx, "membersim", "claim", "evt")
	assert.Equal(t, ctx, newCtx)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(span, errors.New("ignored"))
		sm.AddSpanEvent(ctx, "x", attribute.Int("n", 1))
	})
}
