package trigger

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/randalmurphal/healthsim/pkg/healthsim/template"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
)

// Key identifies an event kind within a product.
type Key struct {
	Product   string `json:"product" yaml:"product"`
	EventType string `json:"event_type" yaml:"event_type"`
}

func (k Key) String() string { return k.Product + "/" + k.EventType }

// ParseKey parses "product/event_type".
func ParseKey(s string) (Key, error) {
	product, eventType, ok := strings.Cut(s, "/")
	if !ok || product == "" || eventType == "" || strings.Contains(eventType, "/") {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key{Product: product, EventType: eventType}, nil
}

// RegisteredTrigger is one source-to-target rule.
type RegisteredTrigger struct {
	Source       Key
	Target       Key
	Delay        timeline.EventDelay
	ParameterMap map[string]string
	Condition    Condition
	Priority     Priority

	// Name, when set, names the spawned event. It is rendered against the
	// firing context overlaid with the mapped parameters.
	Name *template.Template
}

func (t RegisteredTrigger) validate() error {
	if t.Source.Product == "" || t.Source.EventType == "" ||
		t.Target.Product == "" || t.Target.EventType == "" {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTrigger, t.Source, t.Target)
	}
	if err := t.Delay.Validate(); err != nil {
		return fmt.Errorf("%w: %s -> %s: %w", ErrInvalidTrigger, t.Source, t.Target, err)
	}
	return nil
}

func (t RegisteredTrigger) eventName(fireCtx, params map[string]any) string {
	if t.Name == nil {
		return ""
	}
	vars := maps.Clone(fireCtx)
	if vars == nil {
		vars = make(map[string]any, len(params))
	}
	maps.Copy(vars, params)
	return t.Name.Render(vars)
}

// mapParameters copies params, renaming keys found in ParameterMap.
func (t RegisteredTrigger) mapParameters(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if renamed, ok := t.ParameterMap[k]; ok {
			out[renamed] = v
			continue
		}
		out[k] = v
	}
	return out
}

// Option configures a trigger at registration.
type Option func(*RegisteredTrigger)

// WithDelay sets the offset of the spawned event from the source event.
func WithDelay(d timeline.EventDelay) Option {
	return func(t *RegisteredTrigger) { t.Delay = d }
}

// WithParameterMap renames source parameters (source name -> target name).
func WithParameterMap(m map[string]string) Option {
	return func(t *RegisteredTrigger) { t.ParameterMap = maps.Clone(m) }
}

// WithCondition gates the trigger on the firing context.
func WithCondition(c Condition) Option {
	return func(t *RegisteredTrigger) { t.Condition = c }
}

// WithName names spawned events from tmpl.
func WithName(tmpl *template.Template) Option {
	return func(t *RegisteredTrigger) { t.Name = tmpl }
}

// WithPriority sets the tie-break hint (default PriorityNormal).
func WithPriority(p Priority) Option {
	return func(t *RegisteredTrigger) { t.Priority = p }
}

// TriggeredEvent is the record produced when a trigger fires.
type TriggeredEvent struct {
	Source          Key                 `json:"source"`
	TargetProduct   string              `json:"target_product"`
	TargetEventType string              `json:"target_event_type"`
	Name            string              `json:"name,omitempty"`
	Parameters      map[string]any      `json:"parameters"`
	Delay           timeline.EventDelay `json:"delay"`
	Priority        Priority            `json:"priority"`

	// HandlerErr is set when the target handler failed or panicked.
	HandlerErr error `json:"-"`
}

// Target returns the record's target key.
func (e TriggeredEvent) Target() Key {
	return Key{Product: e.TargetProduct, EventType: e.TargetEventType}
}

// Handler receives every record fired toward its product.
type Handler interface {
	HandleTrigger(ctx context.Context, targetEventType string, rec TriggeredEvent, fireCtx map[string]any) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, targetEventType string, rec TriggeredEvent, fireCtx map[string]any) error

func (f HandlerFunc) HandleTrigger(ctx context.Context, targetEventType string, rec TriggeredEvent, fireCtx map[string]any) error {
	return f(ctx, targetEventType, rec, fireCtx)
}
