package coordinator

import (
	"maps"
	"slices"
	"time"

	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

// Results holds one advance's event results keyed by product.
type Results map[string][]EventResult

// EventResult describes what happened to one due event.
type EventResult struct {
	EventID     string          `json:"event_id" yaml:"event_id"`
	EventType   string          `json:"event_type" yaml:"event_type"`
	ScheduledAt time.Time       `json:"scheduled_at" yaml:"scheduled_at"`
	Status      timeline.Status `json:"status" yaml:"status"`
	// Reason is the skip reason or failure message.
	Reason    string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	Outputs   map[string]any  `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Triggered []TriggerResult `json:"triggered,omitempty" yaml:"triggered,omitempty"`
	// Attempts is the number of engine calls made, when more than one.
	Attempts int `json:"attempts,omitempty" yaml:"attempts,omitempty"`

	// Err is the engine error behind a failure, if any.
	Err error `json:"-" yaml:"-"`
}

// TriggerResult describes one trigger fired by an executed event.
type TriggerResult struct {
	Target trigger.Key `json:"target" yaml:"target"`
	// EventID and ScheduledAt are set when the event was placed.
	EventID     string    `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at,omitzero" yaml:"scheduled_at,omitempty"`
	Placed      bool      `json:"placed" yaml:"placed"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`

	// Err is ErrNoTargetTimeline for unplaced records.
	Err error `json:"-" yaml:"-"`
	// HandlerErr is the target handler's failure, if any.
	HandlerErr error `json:"-" yaml:"-"`
}

// Products returns the products with results, sorted.
func (r Results) Products() []string {
	return slices.Sorted(maps.Keys(r))
}

// Count returns the number of results with status across all products.
func (r Results) Count(status timeline.Status) int {
	n := 0
	for product := range r {
		n += r.CountFor(product, status)
	}
	return n
}

// CountFor returns the number of results with status for product.
func (r Results) CountFor(product string, status timeline.Status) int {
	n := 0
	for _, er := range r[product] {
		if er.Status == status {
			n++
		}
	}
	return n
}

// Len returns the total number of event results.
func (r Results) Len() int {
	n := 0
	for _, ers := range r {
		n += len(ers)
	}
	return n
}

// Unplaced returns every fired trigger that found no target timeline.
func (r Results) Unplaced() []TriggerResult {
	var out []TriggerResult
	for _, product := range r.Products() {
		for _, er := range r[product] {
			for _, tr := range er.Triggered {
				if !tr.Placed {
					out = append(out, tr)
				}
			}
		}
	}
	return out
}
