package cohort

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/randalmurphal/healthsim/pkg/healthsim/config"
	"github.com/randalmurphal/healthsim/pkg/healthsim/coordinator"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
)

// StaticEngine executes every event with fixed outputs. Event types listed
// in Skip are skipped and those in Fail fail.
type StaticEngine struct {
	Outputs map[string]any
	Skip    []string
	Fail    []string
}

// NewStaticEngine builds an engine from a cohort file engine block.
func NewStaticEngine(spec config.EngineSpec) *StaticEngine {
	return &StaticEngine{Outputs: spec.Outputs, Skip: spec.Skip, Fail: spec.Fail}
}

func (s *StaticEngine) ExecuteEvent(ctx context.Context, _ map[string]any, ev *timeline.TimelineEvent, _ map[string]any) (coordinator.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return coordinator.Outcome{}, err
	}
	switch {
	case slices.Contains(s.Fail, ev.EventType):
		return coordinator.Failed(fmt.Sprintf("%s configured to fail", ev.EventType)), nil
	case slices.Contains(s.Skip, ev.EventType):
		return coordinator.Outcome{Status: timeline.StatusSkipped, Error: "skipped by engine configuration"}, nil
	}
	return coordinator.Executed(maps.Clone(s.Outputs)), nil
}

// Build creates a coordinator for cf: the cohort seed, engine timeout,
// engine retries and default-trigger setting come from the file, then opts
// are applied. Extra triggers and static engines are registered, and every
// entity is created with one timeline per product it lists. Timelines are
// not scheduled.
func Build(cf *config.CohortFile, opts ...coordinator.Option) (*coordinator.Coordinator, error) {
	settings := cf.Config()
	base := []coordinator.Option{Seeded(cf.Seed)}
	if d := settings.Duration("engine_timeout", 0); d > 0 {
		base = append(base, coordinator.WithEngineTimeout(d))
	}
	if n := settings.Int("engine_attempts", 1); n > 1 {
		policy := coordinator.DefaultRetry
		policy.MaxAttempts = n
		policy.InitialBackoff = settings.Duration("engine_backoff", policy.InitialBackoff)
		base = append(base, coordinator.WithEngineRetry(policy))
	}
	if !settings.Bool("default_triggers", true) {
		base = append(base, coordinator.WithoutDefaultTriggers())
	}

	coord, err := coordinator.New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	for i, ts := range cf.Triggers {
		rt, err := ts.Trigger()
		if err != nil {
			return nil, fmt.Errorf("trigger %d: %w", i, err)
		}
		if err := coord.Triggers().RegisterTrigger(rt); err != nil {
			return nil, fmt.Errorf("trigger %d: %w", i, err)
		}
	}

	for _, product := range slices.Sorted(maps.Keys(cf.Engines)) {
		if err := coord.RegisterEngine(product, NewStaticEngine(cf.Engines[product])); err != nil {
			return nil, fmt.Errorf("engine %s: %w", product, err)
		}
	}

	for _, spec := range cf.Entities {
		entity, err := coord.CreateLinkedEntity(spec.CoreID, spec.ProductIDs)
		if err != nil {
			return nil, err
		}
		for _, product := range slices.Sorted(maps.Keys(spec.Timelines)) {
			if err := coord.AddTimeline(entity, product, spec.BuildTimeline(product)); err != nil {
				return nil, fmt.Errorf("entity %s: %w", spec.CoreID, err)
			}
		}
	}
	return coord, nil
}
