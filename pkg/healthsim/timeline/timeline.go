package timeline

import (
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Timeline is the ordered list of events for one entity in one product.
// Events are kept sorted by scheduled date; unscheduled events sort last
// in insertion order. A Timeline is not safe for concurrent use.
type Timeline struct {
	ID         string
	EntityID   string
	EntityType string
	Name       string
	StartDate  time.Time

	events []*TimelineEvent
	linked map[string]struct{}
}

// Option configures a Timeline.
type Option func(*Timeline)

// WithID sets the timeline ID (default: auto-generated UUID).
func WithID(id string) Option {
	return func(t *Timeline) {
		t.ID = id
	}
}

// WithEntity sets the owning entity. The entity ID defaults to the timeline ID.
func WithEntity(entityID, entityType string) Option {
	return func(t *Timeline) {
		t.EntityID = entityID
		t.EntityType = entityType
	}
}

// WithTimelineName sets a display name.
func WithTimelineName(name string) Option {
	return func(t *Timeline) {
		t.Name = name
	}
}

// New creates an empty timeline starting at start.
func New(start time.Time, opts ...Option) *Timeline {
	t := &Timeline{
		ID:        uuid.New().String(),
		StartDate: start,
		linked:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.EntityID == "" {
		t.EntityID = t.ID
	}
	return t
}

// CreateEvent adds a pending event and returns it.
func (t *Timeline) CreateEvent(eventType string, opts ...EventOption) *TimelineEvent {
	e := newEvent(eventType)
	for _, opt := range opts {
		opt(e)
	}
	t.events = append(t.events, e)
	t.sort()
	return e
}

// ScheduleEvents assigns a date to every pending, non-fixed event.
//
// Each event is placed at its base date plus Delay.Calculate(rng), where the
// base is StartDate or, with DependsOn, the dependency's scheduled date.
// Dependencies are scheduled before their dependents regardless of order.
// Executed, skipped, failed and fixed events keep their dates.
//
// Returns a *DependencyError (wrapping ErrUnknownDependency or
// ErrDependencyCycle), or an error wrapping ErrInvalidDelay, before any date
// is changed.
func (t *Timeline) ScheduleEvents(rng RandomSource) error {
	byID := make(map[string]*TimelineEvent, len(t.events))
	for _, e := range t.events {
		byID[e.ID] = e
	}
	if err := validateDependencies(t.events, byID); err != nil {
		return err
	}
	for _, e := range t.events {
		if e.Fixed || e.Status.IsTerminal() {
			continue
		}
		if err := e.Delay.Validate(); err != nil {
			return fmt.Errorf("event %s: %w", e.ID, err)
		}
	}

	done := make(map[string]bool, len(t.events))
	var schedule func(e *TimelineEvent)
	schedule = func(e *TimelineEvent) {
		if done[e.ID] {
			return
		}
		done[e.ID] = true
		if e.Fixed || e.Status.IsTerminal() {
			return
		}

		base := t.StartDate
		if e.DependsOn != "" {
			dep := byID[e.DependsOn]
			schedule(dep)
			if at, ok := dep.Scheduled(); ok {
				base = at
			}
		}
		at := base.Add(e.Delay.Calculate(rng))
		e.ScheduledAt = &at
	}

	for _, e := range t.events {
		schedule(e)
	}
	t.sort()
	return nil
}

func validateDependencies(events []*TimelineEvent, byID map[string]*TimelineEvent) error {
	for _, e := range events {
		seen := map[string]bool{e.ID: true}
		cur := e
		for cur.DependsOn != "" {
			dep, ok := byID[cur.DependsOn]
			if !ok {
				return &DependencyError{EventID: cur.ID, DependsOn: cur.DependsOn, Err: ErrUnknownDependency}
			}
			if seen[dep.ID] {
				return &DependencyError{EventID: cur.ID, DependsOn: cur.DependsOn, Err: ErrDependencyCycle}
			}
			seen[dep.ID] = true
			cur = dep
		}
	}
	return nil
}

// PendingEvents yields pending events scheduled on or before upTo, in
// schedule order. A zero upTo means now. The sequence reads the timeline
// when iterated, so it can be ranged over more than once.
func (t *Timeline) PendingEvents(upTo time.Time) iter.Seq[*TimelineEvent] {
	return func(yield func(*TimelineEvent) bool) {
		cutoff := upTo
		if cutoff.IsZero() {
			cutoff = time.Now()
		}
		for _, e := range t.events {
			if e.IsDue(cutoff) && !yield(e) {
				return
			}
		}
	}
}

// Events returns a copy of the ordered event list.
func (t *Timeline) Events() []*TimelineEvent {
	return slices.Clone(t.events)
}

// Len returns the number of events.
func (t *Timeline) Len() int { return len(t.events) }

// Event returns the event with the given ID.
func (t *Timeline) Event(id string) (*TimelineEvent, bool) {
	for _, e := range t.events {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// EventsByType returns events with the given type in schedule order.
func (t *Timeline) EventsByType(eventType string) []*TimelineEvent {
	return t.filter(func(e *TimelineEvent) bool { return e.EventType == eventType })
}

// EventsByStatus returns events with the given status in schedule order.
func (t *Timeline) EventsByStatus(status Status) []*TimelineEvent {
	return t.filter(func(e *TimelineEvent) bool { return e.Status == status })
}

// EventsInRange returns scheduled events within [start, end] inclusive.
func (t *Timeline) EventsInRange(start, end time.Time) []*TimelineEvent {
	return t.filter(func(e *TimelineEvent) bool {
		at, ok := e.Scheduled()
		return ok && !at.Before(start) && !at.After(end)
	})
}

func (t *Timeline) filter(keep func(*TimelineEvent) bool) []*TimelineEvent {
	var out []*TimelineEvent
	for _, e := range t.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// FirstEvent returns the earliest scheduled event.
func (t *Timeline) FirstEvent() (*TimelineEvent, bool) {
	if len(t.events) == 0 || t.events[0].ScheduledAt == nil {
		return nil, false
	}
	return t.events[0], true
}

// LastEvent returns the latest scheduled event.
func (t *Timeline) LastEvent() (*TimelineEvent, bool) {
	for i := len(t.events) - 1; i >= 0; i-- {
		if t.events[i].ScheduledAt != nil {
			return t.events[i], true
		}
	}
	return nil, false
}

// RemoveEvent deletes the event with the given ID and reports whether it existed.
func (t *Timeline) RemoveEvent(id string) bool {
	i := slices.IndexFunc(t.events, func(e *TimelineEvent) bool { return e.ID == id })
	if i < 0 {
		return false
	}
	t.events = slices.Delete(t.events, i, i+1)
	return true
}

// Clear removes all events.
func (t *Timeline) Clear() {
	t.events = nil
}

// IsComplete reports whether every event was executed or skipped.
// A failed event keeps the timeline incomplete so it gets inspected.
func (t *Timeline) IsComplete() bool {
	for _, e := range t.events {
		if e.Status != StatusExecuted && e.Status != StatusSkipped {
			return false
		}
	}
	return true
}

// StatusCounts returns the number of events in each status.
func (t *Timeline) StatusCounts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, e := range t.events {
		counts[e.Status]++
	}
	return counts
}

// LinkTimeline records a cross-reference to the sibling timeline of product.
func (t *Timeline) LinkTimeline(product string) {
	if t.linked == nil {
		t.linked = make(map[string]struct{})
	}
	t.linked[product] = struct{}{}
}

// IsLinkedTo reports whether a cross-reference to product exists.
func (t *Timeline) IsLinkedTo(product string) bool {
	_, ok := t.linked[product]
	return ok
}

// LinkedTimelines returns the cross-referenced product names, sorted.
func (t *Timeline) LinkedTimelines() []string {
	return slices.Sorted(maps.Keys(t.linked))
}

// sort orders events by scheduled date, unscheduled last. The sort is
// stable so insertion order breaks ties.
func (t *Timeline) sort() {
	slices.SortStableFunc(t.events, compareEvents)
}

func compareEvents(a, b *TimelineEvent) int {
	switch {
	case a.ScheduledAt == nil && b.ScheduledAt == nil:
		return 0
	case a.ScheduledAt == nil:
		return 1
	case b.ScheduledAt == nil:
		return -1
	}
	return a.ScheduledAt.Compare(*b.ScheduledAt)
}

type timelineJSON struct {
	ID              string           `json:"id"`
	EntityID        string           `json:"entity_id"`
	EntityType      string           `json:"entity_type,omitempty"`
	Name            string           `json:"name,omitempty"`
	StartDate       time.Time        `json:"start_date"`
	Events          []*TimelineEvent `json:"events"`
	LinkedTimelines []string         `json:"linked_timelines,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t *Timeline) MarshalJSON() ([]byte, error) {
	return json.Marshal(timelineJSON{
		ID:              t.ID,
		EntityID:        t.EntityID,
		EntityType:      t.EntityType,
		Name:            t.Name,
		StartDate:       t.StartDate,
		Events:          t.events,
		LinkedTimelines: t.LinkedTimelines(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timeline) UnmarshalJSON(data []byte) error {
	var raw timelineJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.ID = raw.ID
	t.EntityID = raw.EntityID
	t.EntityType = raw.EntityType
	t.Name = raw.Name
	t.StartDate = raw.StartDate
	t.events = raw.Events
	t.linked = make(map[string]struct{}, len(raw.LinkedTimelines))
	for _, p := range raw.LinkedTimelines {
		t.linked[p] = struct{}{}
	}
	for _, e := range t.events {
		if e.Payload == nil {
			e.Payload = make(map[string]any)
		}
	}
	t.sort()
	return nil
}
