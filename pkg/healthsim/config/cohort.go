package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/healthsim/pkg/healthsim/template"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

// ErrInvalidCohort wraps every validation failure of a cohort file.
var ErrInvalidCohort = errors.New("invalid cohort file")

// CohortFile describes a cohort: linked entities with their timelines, the
// static engines that execute them and extra trigger rules.
//
// Settings keys read by the runner: workers, cutoff, engine_timeout,
// engine_attempts, engine_backoff and default_triggers.
type CohortFile struct {
	Seed     uint64                `json:"seed" yaml:"seed"`
	Settings map[string]any        `json:"settings,omitempty" yaml:"settings,omitempty"`
	Engines  map[string]EngineSpec `json:"engines,omitempty" yaml:"engines,omitempty"`
	Triggers []TriggerSpec         `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Entities []EntitySpec          `json:"entities" yaml:"entities"`
}

// EngineSpec configures a static engine for one product. Every event
// executes with Outputs unless its type is listed in Skip or Fail.
type EngineSpec struct {
	Outputs map[string]any `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Skip    []string       `json:"skip,omitempty" yaml:"skip,omitempty"`
	Fail    []string       `json:"fail,omitempty" yaml:"fail,omitempty"`
}

// TriggerSpec is a trigger rule. Source and Target are "product/event_type".
// Name is a template such as "Claim ${diagnosis_code}" for spawned events.
type TriggerSpec struct {
	Source       string            `json:"source" yaml:"source"`
	Target       string            `json:"target" yaml:"target"`
	Name         string            `json:"name,omitempty" yaml:"name,omitempty"`
	Delay        DelaySpec         `json:"delay,omitzero" yaml:"delay,omitempty"`
	ParameterMap map[string]string `json:"parameter_map,omitempty" yaml:"parameter_map,omitempty"`
	Condition    string            `json:"condition,omitempty" yaml:"condition,omitempty"`
	Priority     *trigger.Priority `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// EntitySpec is one person across products.
type EntitySpec struct {
	CoreID     string                 `json:"core_id" yaml:"core_id"`
	ProductIDs map[string]string      `json:"product_ids,omitempty" yaml:"product_ids,omitempty"`
	Start      Date                   `json:"start" yaml:"start"`
	Timelines  map[string][]EventSpec `json:"timelines" yaml:"timelines"`
}

// EventSpec is one event on a timeline. At pins the date; otherwise the
// event is placed by Delay from its dependency or the timeline start.
type EventSpec struct {
	ID        string         `json:"id,omitempty" yaml:"id,omitempty"`
	Type      string         `json:"type" yaml:"type"`
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	At        *Date          `json:"at,omitempty" yaml:"at,omitempty"`
	Delay     DelaySpec      `json:"delay,omitzero" yaml:"delay,omitempty"`
	DependsOn string         `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Payload   map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	Tags      []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// DelaySpec is a delay range. Days, when set, fixes the day part.
type DelaySpec struct {
	Days     *int `json:"days,omitempty" yaml:"days,omitempty"`
	MinDays  int  `json:"min_days,omitempty" yaml:"min_days,omitempty"`
	MaxDays  int  `json:"max_days,omitempty" yaml:"max_days,omitempty"`
	MinHours int  `json:"min_hours,omitempty" yaml:"min_hours,omitempty"`
	MaxHours int  `json:"max_hours,omitempty" yaml:"max_hours,omitempty"`
}

// Delay converts d to a timeline.EventDelay.
func (d DelaySpec) Delay() timeline.EventDelay {
	out := timeline.EventDelay{
		MinDays:  d.MinDays,
		MaxDays:  d.MaxDays,
		MinHours: d.MinHours,
		MaxHours: d.MaxHours,
	}
	if d.Days != nil {
		out.MinDays, out.MaxDays = *d.Days, *d.Days
	}
	return out
}

// Date is a calendar day, written "2006-01-02" and held as midnight UTC.
type Date struct {
	time.Time
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Format(time.DateOnly)), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	t, err := ParseDate(string(text))
	if err != nil {
		return fmt.Errorf("date %q: want YYYY-MM-DD", text)
	}
	d.Time = t
	return nil
}

func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

// LoadCohort reads and validates a cohort file (.yaml, .yml or .json).
func LoadCohort(path string) (*CohortFile, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	var cf CohortFile
	if err := decodeFile(path, &cf); err != nil {
		return nil, err
	}
	if f == formatJSON {
		cf.normalizeNumbers()
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

// ParseCohort decodes and validates a YAML cohort document.
func ParseCohort(data []byte) (*CohortFile, error) {
	var cf CohortFile
	if err := decode(formatYAML, data, &cf); err != nil {
		return nil, err
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

func (cf *CohortFile) normalizeNumbers() {
	normalize(cf.Settings)
	for _, e := range cf.Engines {
		normalize(e.Outputs)
	}
	for _, ent := range cf.Entities {
		for _, events := range ent.Timelines {
			for _, ev := range events {
				normalize(ev.Payload)
			}
		}
	}
}

// Config returns the settings block.
func (cf *CohortFile) Config() Config {
	return New(cf.Settings)
}

// Validate reports every problem in the file, joined, each wrapping
// ErrInvalidCohort.
func (cf *CohortFile) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidCohort}, args...)...))
	}

	settings := cf.Config()
	if settings.Int("workers", 0) < 0 {
		fail("settings.workers must not be negative")
	}
	if settings.Has("cutoff") && settings.Date("cutoff", time.Time{}).IsZero() {
		fail("settings.cutoff %v is not a date", settings.Any("cutoff", nil))
	}
	if settings.Duration("engine_timeout", 0) < 0 {
		fail("settings.engine_timeout must not be negative")
	}

	for product := range cf.Engines {
		if product == "" {
			fail("engine with empty product")
		}
	}

	for i, ts := range cf.Triggers {
		if _, err := ts.Trigger(); err != nil {
			fail("triggers[%d]: %v", i, err)
		}
	}

	if len(cf.Entities) == 0 {
		fail("no entities")
	}
	seen := make(map[string]bool, len(cf.Entities))
	for i, ent := range cf.Entities {
		switch {
		case ent.CoreID == "":
			fail("entities[%d]: core_id is required", i)
		case seen[ent.CoreID]:
			fail("entities[%d]: duplicate core_id %q", i, ent.CoreID)
		}
		seen[ent.CoreID] = true
		if ent.Start.IsZero() {
			fail("entity %q: start is required", ent.CoreID)
		}
		for product, events := range ent.Timelines {
			if product == "" {
				fail("entity %q: timeline with empty product", ent.CoreID)
			}
			for _, msg := range validateEvents(events) {
				fail("entity %q timeline %q: %s", ent.CoreID, product, msg)
			}
		}
	}
	return errors.Join(errs...)
}

func validateEvents(events []EventSpec) []string {
	var problems []string
	ids := make(map[string]bool, len(events))
	for i, ev := range events {
		if ev.Type == "" {
			problems = append(problems, fmt.Sprintf("events[%d]: type is required", i))
		}
		if ev.ID != "" {
			if ids[ev.ID] {
				problems = append(problems, fmt.Sprintf("events[%d]: duplicate id %q", i, ev.ID))
			}
			ids[ev.ID] = true
		}
		if err := ev.Delay.Delay().Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("events[%d]: %v", i, err))
		}
	}
	for i, ev := range events {
		if ev.DependsOn != "" && !ids[ev.DependsOn] {
			problems = append(problems, fmt.Sprintf("events[%d]: depends_on %q is not an event id on this timeline", i, ev.DependsOn))
		}
	}
	return problems
}

// Trigger builds the registrable trigger this entry describes.
func (ts TriggerSpec) Trigger() (trigger.RegisteredTrigger, error) {
	source, err := trigger.ParseKey(ts.Source)
	if err != nil {
		return trigger.RegisteredTrigger{}, fmt.Errorf("source: %w", err)
	}
	target, err := trigger.ParseKey(ts.Target)
	if err != nil {
		return trigger.RegisteredTrigger{}, fmt.Errorf("target: %w", err)
	}
	delay := ts.Delay.Delay()
	if err := delay.Validate(); err != nil {
		return trigger.RegisteredTrigger{}, err
	}

	rt := trigger.RegisteredTrigger{
		Source:       source,
		Target:       target,
		Delay:        delay,
		ParameterMap: ts.ParameterMap,
		Priority:     trigger.PriorityNormal,
	}
	if ts.Priority != nil {
		rt.Priority = *ts.Priority
	}
	if ts.Name != "" {
		name, err := template.Parse(ts.Name)
		if err != nil {
			return trigger.RegisteredTrigger{}, fmt.Errorf("name: %w", err)
		}
		rt.Name = name
	}
	if ts.Condition != "" {
		cond, err := trigger.Expr(ts.Condition)
		if err != nil {
			return trigger.RegisteredTrigger{}, fmt.Errorf("condition: %w", err)
		}
		rt.Condition = cond
	}
	return rt, nil
}

// Options returns the timeline event options for this entry.
func (ev EventSpec) Options() []timeline.EventOption {
	var opts []timeline.EventOption
	if ev.ID != "" {
		opts = append(opts, timeline.WithEventID(ev.ID))
	}
	if ev.Name != "" {
		opts = append(opts, timeline.WithName(ev.Name))
	}
	if ev.At != nil {
		opts = append(opts, timeline.WithScheduledAt(ev.At.Time))
	}
	if ev.DependsOn != "" {
		opts = append(opts, timeline.WithDependsOn(ev.DependsOn))
	}
	if len(ev.Payload) > 0 {
		opts = append(opts, timeline.WithPayload(ev.Payload))
	}
	if len(ev.Tags) > 0 {
		opts = append(opts, timeline.WithTags(ev.Tags...))
	}
	return append(opts, timeline.WithDelay(ev.Delay.Delay()))
}

// BuildTimeline creates the timeline for product from the entity's events.
// The timeline is not scheduled.
func (ent EntitySpec) BuildTimeline(product string) *timeline.Timeline {
	tl := timeline.New(ent.Start.Time,
		timeline.WithEntity(ent.CoreID, product),
		timeline.WithTimelineName(product),
	)
	for _, ev := range ent.Timelines[product] {
		tl.CreateEvent(ev.Type, ev.Options()...)
	}
	return tl
}
