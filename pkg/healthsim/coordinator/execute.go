package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"runtime/debug"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/healthsim/pkg/healthsim/observability"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

// dueEvent is one entry of the advance snapshot.
type dueEvent struct {
	product string
	tl      *timeline.Timeline
	event   *timeline.TimelineEvent
	at      time.Time
}

// ExecuteCoordinated runs every pending event of entity scheduled on or
// before cutoff.
//
// Due events across all products are collected first and run in order of
// scheduled date, then product name, then timeline order. Events spawned by
// triggers during the advance are placed on their sibling timelines but run
// in a later advance.
//
// For each event:
//   - no engine for the product: the event is skipped with NoEngineReason;
//   - the engine executes it: the event is marked executed and triggers
//     fire with the event payload merged with the engine outputs;
//   - the engine fails, errors, panics or times out: the event is marked
//     failed and fires nothing. Errors the retry policy accepts are retried
//     first (see WithEngineRetry).
//
// Per-event failures never abort the advance. The error is non-nil only for
// a nil context, an entity this coordinator does not own, or a context
// cancelled mid-advance (*CancellationError, with partial results).
func (c *Coordinator) ExecuteCoordinated(ctx context.Context, entity *LinkedEntity, cutoff time.Time) (results Results, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := c.owns(entity); err != nil {
		return nil, err
	}
	c.freeze()

	entity.mu.Lock()
	defer entity.mu.Unlock()

	start := time.Now()
	due := collectDue(entity, cutoff)
	observability.LogAdvanceStart(c.cfg.logger, entity.CoreID, cutoff, len(due))

	advCtx, span := c.cfg.spans.StartAdvanceSpan(ctx, entity.CoreID, cutoff)
	defer func() {
		c.cfg.spans.EndSpanWithError(span, err)
	}()

	results = make(Results)
	for i, d := range due {
		if cerr := ctx.Err(); cerr != nil {
			err = &CancellationError{CoreID: entity.CoreID, Remaining: len(due) - i, Cause: cerr}
			break
		}
		er := c.executeEvent(advCtx, entity, d, cutoff)
		results[d.product] = append(results[d.product], er)
	}

	c.saveSnapshots(ctx, entity)

	failed := results.Count(timeline.StatusFailed)
	duration := time.Since(start)
	c.cfg.metrics.RecordAdvance(ctx, err == nil && failed == 0, duration)
	observability.LogAdvanceComplete(c.cfg.logger, entity.CoreID, float64(duration.Microseconds())/1000,
		results.Count(timeline.StatusExecuted), results.Count(timeline.StatusSkipped), failed)

	return results, err
}

// collectDue snapshots the due events of every timeline. Caller holds entity.mu.
func collectDue(entity *LinkedEntity, cutoff time.Time) []dueEvent {
	var due []dueEvent
	for _, product := range slices.Sorted(maps.Keys(entity.timelines)) {
		tl := entity.timelines[product]
		for e := range tl.PendingEvents(cutoff) {
			at, _ := e.Scheduled()
			due = append(due, dueEvent{product: product, tl: tl, event: e, at: at})
		}
	}
	// Stable: ties keep product order, then timeline order.
	slices.SortStableFunc(due, func(a, b dueEvent) int { return a.at.Compare(b.at) })
	return due
}

func (c *Coordinator) executeEvent(ctx context.Context, entity *LinkedEntity, d dueEvent, cutoff time.Time) EventResult {
	ev := d.event
	er := EventResult{EventID: ev.ID, EventType: ev.EventType, ScheduledAt: d.at}
	logger := observability.EnrichLogger(c.cfg.logger, entity.CoreID, d.product)

	engine, ok := c.engines.Get(d.product)
	if !ok {
		// Due events are pending, so the transition cannot fail.
		_ = ev.MarkSkipped(NoEngineReason)
		er.Status, er.Reason = timeline.StatusSkipped, NoEngineReason
		observability.LogEventSkipped(logger, d.product, ev.ID, NoEngineReason)
		c.cfg.metrics.RecordEvent(ctx, d.product, string(er.Status), 0)
		return er
	}

	evCtx, span := c.cfg.spans.StartEventSpan(ctx, d.product, ev.EventType, ev.ID)
	execCtx := map[string]any{
		"core_id":         entity.CoreID,
		"product":         d.product,
		"timeline_id":     d.tl.ID,
		"cutoff":          cutoff,
		"linked_products": d.tl.LinkedTimelines(),
	}

	pe := entity.productEntity(d.product)
	began := time.Now()
	outcome, attempts, callErr := withRetry(evCtx, c.cfg.retry, func() (Outcome, error) {
		// Each attempt gets its own maps: a timed-out attempt may still be
		// running against the previous ones.
		return c.callEngine(evCtx, engine, d.product, maps.Clone(pe), ev, cloneExecCtx(execCtx))
	})
	elapsed := time.Since(began)
	if attempts > 1 {
		er.Attempts = attempts
	}

	status := outcome.Status
	if status == "" {
		status = timeline.StatusExecuted
	}
	if callErr != nil {
		status = timeline.StatusFailed
	}

	switch status {
	case timeline.StatusExecuted:
		_ = ev.MarkExecuted(outcome.Outputs)
		er.Status, er.Outputs = status, outcome.Outputs
		observability.LogEventExecuted(logger, d.product, ev.ID, ev.EventType, float64(elapsed.Microseconds())/1000)
		er.Triggered = c.fireTriggers(evCtx, entity, d)
		c.cfg.spans.EndSpanWithError(span, nil)

	case timeline.StatusSkipped:
		_ = ev.MarkSkipped(outcome.Error)
		er.Status, er.Reason = status, outcome.Error
		observability.LogEventSkipped(logger, d.product, ev.ID, outcome.Error)
		c.cfg.spans.EndSpanWithError(span, nil)

	default:
		msg := outcome.Error
		if callErr != nil {
			msg = callErr.Error()
		} else if status != timeline.StatusFailed {
			msg = fmt.Sprintf("engine returned unknown status %q", status)
		}
		if msg == "" {
			msg = "engine reported failure"
		}
		cause := callErr
		if cause == nil {
			cause = &EngineError{Product: d.product, EventID: ev.ID, Err: errors.New(msg)}
		}
		_ = ev.MarkFailed(msg)
		er.Status, er.Reason, er.Err = timeline.StatusFailed, msg, cause
		observability.LogEventFailed(logger, d.product, ev.ID, cause)
		c.cfg.spans.EndSpanWithError(span, cause)
	}

	c.cfg.metrics.RecordEvent(ctx, d.product, string(er.Status), elapsed)
	return er
}

// callEngine invokes the engine on a copy of ev, recovering panics and
// enforcing the engine timeout.
func (c *Coordinator) callEngine(ctx context.Context, engine Engine, product string, pe map[string]any, ev *timeline.TimelineEvent, execCtx map[string]any) (Outcome, error) {
	if c.cfg.engineTimeout <= 0 {
		return invokeEngine(ctx, engine, product, pe, copyEvent(ev), execCtx)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.engineTimeout)
	defer cancel()

	type reply struct {
		outcome Outcome
		err     error
	}
	cp := copyEvent(ev)
	done := make(chan reply, 1)
	go func() {
		o, err := invokeEngine(ctx, engine, product, pe, cp, execCtx)
		done <- reply{o, err}
	}()

	select {
	case r := <-done:
		return r.outcome, r.err
	case <-ctx.Done():
		// The abandoned call only holds copies of entity state.
		return Outcome{}, &EngineError{Product: product, EventID: ev.ID, Err: ctx.Err()}
	}
}

func cloneExecCtx(execCtx map[string]any) map[string]any {
	out := maps.Clone(execCtx)
	if linked, ok := out["linked_products"].([]string); ok {
		out["linked_products"] = slices.Clone(linked)
	}
	return out
}

func invokeEngine(ctx context.Context, engine Engine, product string, pe map[string]any, ev *timeline.TimelineEvent, execCtx map[string]any) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{}
			err = &PanicError{
				Product: product,
				EventID: ev.ID,
				Value:   r,
				Stack:   string(debug.Stack()),
			}
		}
	}()

	outcome, err = engine.ExecuteEvent(ctx, pe, ev, execCtx)
	if err != nil {
		return outcome, &EngineError{Product: product, EventID: ev.ID, Err: err}
	}
	return outcome, nil
}

// fireTriggers fires the registry for an executed event and places spawned
// events on sibling timelines at the source date plus the trigger delay.
// Caller holds entity.mu.
func (c *Coordinator) fireTriggers(ctx context.Context, entity *LinkedEntity, d dueEvent) []TriggerResult {
	ev := d.event
	source := trigger.Key{Product: d.product, EventType: ev.EventType}

	params := ev.Params()
	maps.Copy(params, ev.Result)

	fireCtx := maps.Clone(params)
	fireCtx["core_id"] = entity.CoreID
	fireCtx["source_product"] = d.product
	fireCtx["source_event_type"] = ev.EventType
	fireCtx["source_event_id"] = ev.ID

	recs := c.triggers.Fire(ctx, source, params, fireCtx)
	if len(recs) == 0 {
		return nil
	}

	out := make([]TriggerResult, 0, len(recs))
	for _, rec := range recs {
		tr := TriggerResult{Target: rec.Target(), HandlerErr: rec.HandlerErr}

		target, ok := entity.timelines[rec.TargetProduct]
		if !ok {
			tr.Err = fmt.Errorf("%w: %s", ErrNoTargetTimeline, rec.TargetProduct)
			tr.Error = tr.Err.Error()
			observability.LogTriggerUnplaced(c.cfg.logger, entity.CoreID, source.String(), rec.Target().String())
			c.cfg.metrics.RecordTrigger(ctx, source.String(), rec.Target().String(), false)
			out = append(out, tr)
			continue
		}

		at := d.at.Add(rec.Delay.Calculate(entity.rng))
		opts := []timeline.EventOption{
			timeline.WithPayload(rec.Parameters),
			timeline.WithDelay(rec.Delay),
			timeline.WithScheduledAt(at),
			timeline.WithTags("triggered", "source:"+source.String()),
		}
		if rec.Name != "" {
			opts = append(opts, timeline.WithName(rec.Name))
		}
		spawned := target.CreateEvent(rec.TargetEventType, opts...)
		tr.EventID, tr.ScheduledAt, tr.Placed = spawned.ID, at, true
		if rec.HandlerErr != nil {
			tr.Error = rec.HandlerErr.Error()
		}

		observability.LogTriggerPlaced(c.cfg.logger, source.String(), rec.Target().String(), spawned.ID, at)
		c.cfg.metrics.RecordTrigger(ctx, source.String(), rec.Target().String(), true)
		c.cfg.spans.AddSpanEvent(ctx, "trigger.placed",
			attribute.String("target", rec.Target().String()),
			attribute.String("event.id", spawned.ID),
		)
		out = append(out, tr)
	}
	return out
}

// saveSnapshots writes every timeline of entity to the snapshot store.
// Caller holds entity.mu.
func (c *Coordinator) saveSnapshots(ctx context.Context, entity *LinkedEntity) {
	store := c.cfg.snapshots
	if store == nil {
		return
	}
	// Snapshots are written even when the advance was cancelled.
	ctx = context.WithoutCancel(ctx)

	for _, product := range slices.Sorted(maps.Keys(entity.timelines)) {
		data, err := json.Marshal(entity.timelines[product])
		if err != nil {
			observability.LogSnapshotError(c.cfg.logger, entity.CoreID, product, "encode", err)
			continue
		}
		if err := store.Save(ctx, entity.CoreID, product, data); err != nil {
			observability.LogSnapshotError(c.cfg.logger, entity.CoreID, product, "save", err)
			continue
		}
		observability.LogSnapshot(c.cfg.logger, entity.CoreID, product, len(data))
		c.cfg.metrics.RecordSnapshot(ctx, product, int64(len(data)))
	}
}
