package coordinator

import (
	"context"
	"maps"

	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
)

// Outcome is what an engine reports for one event.
//
// Status is timeline.StatusExecuted or timeline.StatusFailed; an engine may
// also return timeline.StatusSkipped to decline an event. An empty Status is
// treated as executed.
type Outcome struct {
	Status  timeline.Status `json:"status" yaml:"status"`
	Outputs map[string]any  `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Executed returns a successful outcome carrying outputs.
func Executed(outputs map[string]any) Outcome {
	return Outcome{Status: timeline.StatusExecuted, Outputs: outputs}
}

// Failed returns a failed outcome with msg.
func Failed(msg string) Outcome {
	return Outcome{Status: timeline.StatusFailed, Error: msg}
}

// Engine generates content for one product's events.
//
// productEntity holds the product's natural identifier and core_id. event is
// a copy; the coordinator applies the outcome to the real event. Engines
// shared across a cohort must be safe for concurrent use.
type Engine interface {
	ExecuteEvent(ctx context.Context, productEntity map[string]any, event *timeline.TimelineEvent, execCtx map[string]any) (Outcome, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, productEntity map[string]any, event *timeline.TimelineEvent, execCtx map[string]any) (Outcome, error)

func (f EngineFunc) ExecuteEvent(ctx context.Context, productEntity map[string]any, event *timeline.TimelineEvent, execCtx map[string]any) (Outcome, error) {
	return f(ctx, productEntity, event, execCtx)
}

// copyEvent gives engines a detached view of the event.
func copyEvent(e *timeline.TimelineEvent) *timeline.TimelineEvent {
	cp := *e
	cp.Payload = maps.Clone(e.Payload)
	cp.Tags = append([]string(nil), e.Tags...)
	if e.ScheduledAt != nil {
		at := *e.ScheduledAt
		cp.ScheduledAt = &at
	}
	return &cp
}
