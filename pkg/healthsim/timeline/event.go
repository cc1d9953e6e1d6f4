package timeline

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a TimelineEvent.
type Status string

const (
	// StatusPending is the initial state.
	StatusPending Status = "pending"
	// StatusExecuted means an engine ran the event successfully.
	StatusExecuted Status = "executed"
	// StatusSkipped means the event was deliberately not run.
	StatusSkipped Status = "skipped"
	// StatusFailed means execution was attempted and broke.
	StatusFailed Status = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// Date returns midnight UTC on the given calendar day. Use it for events
// scheduled at day precision so they order correctly against datetimes.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TimelineEvent is one schedulable unit of work on a Timeline.
// Events are created through Timeline.CreateEvent.
type TimelineEvent struct {
	ID          string         `json:"id"`
	EventType   string         `json:"event_type"`
	Name        string         `json:"name"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	Status      Status         `json:"status"`
	Payload     map[string]any `json:"payload,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Delay       EventDelay     `json:"delay"`
	DependsOn   string         `json:"depends_on,omitempty"`

	// Fixed events keep their ScheduledAt when the timeline is rescheduled.
	Fixed bool `json:"fixed,omitempty"`
}

func newEvent(eventType string) *TimelineEvent {
	return &TimelineEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		Name:      eventType,
		Status:    StatusPending,
		Payload:   make(map[string]any),
	}
}

// Scheduled returns the scheduled instant and whether one is set.
func (e *TimelineEvent) Scheduled() (time.Time, bool) {
	if e.ScheduledAt == nil {
		return time.Time{}, false
	}
	return *e.ScheduledAt, true
}

// Before reports whether e is scheduled strictly before other. Events without
// a scheduled date are never before anything.
func (e *TimelineEvent) Before(other *TimelineEvent) bool {
	if e.ScheduledAt == nil || other.ScheduledAt == nil {
		return false
	}
	return e.ScheduledAt.Before(*other.ScheduledAt)
}

// IsDue reports whether the event is pending and scheduled on or before t.
func (e *TimelineEvent) IsDue(t time.Time) bool {
	return e.Status == StatusPending && e.ScheduledAt != nil && !e.ScheduledAt.After(t)
}

// IsTerminal reports whether the event has left the pending state.
func (e *TimelineEvent) IsTerminal() bool {
	return e.Status.IsTerminal()
}

// HasTag reports whether the event carries tag.
func (e *TimelineEvent) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

// AddTag adds tag if it is not already present.
func (e *TimelineEvent) AddTag(tag string) {
	if !e.HasTag(tag) {
		e.Tags = append(e.Tags, tag)
	}
}

// MarkExecuted records a successful execution.
func (e *TimelineEvent) MarkExecuted(result map[string]any) error {
	if err := e.transition(StatusExecuted); err != nil {
		return err
	}
	e.Result = result
	return nil
}

// MarkFailed records a failed execution.
func (e *TimelineEvent) MarkFailed(errMsg string) error {
	if err := e.transition(StatusFailed); err != nil {
		return err
	}
	e.Error = errMsg
	return nil
}

// MarkSkipped records that the event was not run. reason may be empty.
func (e *TimelineEvent) MarkSkipped(reason string) error {
	if err := e.transition(StatusSkipped); err != nil {
		return err
	}
	e.Error = reason
	return nil
}

func (e *TimelineEvent) transition(to Status) error {
	if e.Status.IsTerminal() {
		return &TransitionError{EventID: e.ID, From: e.Status, To: to}
	}
	e.Status = to
	return nil
}

// Params returns a copy of the payload.
func (e *TimelineEvent) Params() map[string]any {
	return maps.Clone(e.Payload)
}

// EventOption configures event creation.
type EventOption func(*TimelineEvent)

// WithEventID sets a specific event ID (default: auto-generated UUID).
func WithEventID(id string) EventOption {
	return func(e *TimelineEvent) {
		e.ID = id
	}
}

// WithName sets the display name (default: the event type).
func WithName(name string) EventOption {
	return func(e *TimelineEvent) {
		if name != "" {
			e.Name = name
		}
	}
}

// WithDelay sets the offset applied when the timeline is scheduled.
func WithDelay(d EventDelay) EventOption {
	return func(e *TimelineEvent) {
		e.Delay = d
	}
}

// WithDependsOn schedules the event relative to another event on the same timeline.
func WithDependsOn(eventID string) EventOption {
	return func(e *TimelineEvent) {
		e.DependsOn = eventID
	}
}

// WithPayload merges params into the event payload.
func WithPayload(params map[string]any) EventOption {
	return func(e *TimelineEvent) {
		maps.Copy(e.Payload, params)
	}
}

// WithParam sets a single payload parameter.
func WithParam(key string, value any) EventOption {
	return func(e *TimelineEvent) {
		e.Payload[key] = value
	}
}

// WithTags adds labels to the event.
func WithTags(tags ...string) EventOption {
	return func(e *TimelineEvent) {
		for _, t := range tags {
			e.AddTag(t)
		}
	}
}

// WithScheduledAt pins the event to t. Pinned events are not moved by
// Timeline.ScheduleEvents.
func WithScheduledAt(t time.Time) EventOption {
	return func(e *TimelineEvent) {
		e.ScheduledAt = &t
		e.Fixed = true
	}
}
