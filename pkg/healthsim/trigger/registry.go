package trigger

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/randalmurphal/healthsim/pkg/healthsim/observability"
	"github.com/randalmurphal/healthsim/pkg/healthsim/registry"
)

// Registry indexes triggers by source key and holds one handler per target
// product. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	triggers map[Key][]RegisteredTrigger
	count    int
	frozen   bool

	handlers *registry.Registry[string, Handler]
	logger   *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used for handler failures (default
// slog.Default). A nil logger disables logging.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		triggers: make(map[Key][]RegisteredTrigger),
		handlers: registry.New[string, Handler](),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a trigger from sourceProduct/sourceEventType to
// targetProduct/targetEventType. Priority defaults to PriorityNormal.
func (r *Registry) Register(sourceProduct, sourceEventType, targetProduct, targetEventType string, opts ...Option) error {
	t := RegisteredTrigger{
		Source:   Key{Product: sourceProduct, EventType: sourceEventType},
		Target:   Key{Product: targetProduct, EventType: targetEventType},
		Priority: PriorityNormal,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return r.RegisterTrigger(t)
}

// RegisterTrigger appends a fully built trigger.
func (r *Registry) RegisterTrigger(t RegisteredTrigger) error {
	if err := t.validate(); err != nil {
		return err
	}
	t.ParameterMap = maps.Clone(t.ParameterMap)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	r.triggers[t.Source] = append(r.triggers[t.Source], t)
	r.count++
	return nil
}

// RegisterTargetHandler sets the handler for product, replacing any earlier one.
func (r *Registry) RegisterTargetHandler(product string, h Handler) error {
	if product == "" || h == nil {
		return fmt.Errorf("%w: handler needs a product and a non-nil handler", ErrInvalidTrigger)
	}
	return r.handlers.Register(product, h)
}

// Handler returns the handler registered for product.
func (r *Registry) Handler(product string) (Handler, bool) {
	return r.handlers.Get(product)
}

// Triggers returns the triggers for source in registration order.
func (r *Registry) Triggers(source Key) []RegisteredTrigger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.triggers[source])
}

// All returns every trigger ordered by source key, then registration order.
func (r *Registry) All() []RegisteredTrigger {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := slices.SortedFunc(maps.Keys(r.triggers), func(a, b Key) int {
		return cmp.Or(cmp.Compare(a.Product, b.Product), cmp.Compare(a.EventType, b.EventType))
	})
	out := make([]RegisteredTrigger, 0, r.count)
	for _, k := range keys {
		out = append(out, r.triggers[k]...)
	}
	return out
}

// Len returns the number of registered triggers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Freeze rejects all further registration. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
	r.handlers.Freeze()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Fire evaluates every trigger registered for source and returns one record
// per trigger whose condition holds, in registration order.
//
// Target parameters are params with keys renamed by the trigger's
// ParameterMap. When the target product has a handler it is called once per
// record; a handler error or panic is logged and stored in HandlerErr, and
// never stops the remaining triggers. A condition that panics is logged and
// counts as false.
func (r *Registry) Fire(ctx context.Context, source Key, params, fireCtx map[string]any) []TriggeredEvent {
	triggers := r.Triggers(source)
	if len(triggers) == 0 {
		return nil
	}

	var fired []TriggeredEvent
	for _, t := range triggers {
		if t.Condition != nil && !r.holds(t, fireCtx) {
			continue
		}

		mapped := t.mapParameters(params)
		rec := TriggeredEvent{
			Source:          source,
			TargetProduct:   t.Target.Product,
			TargetEventType: t.Target.EventType,
			Name:            t.eventName(fireCtx, mapped),
			Parameters:      mapped,
			Delay:           t.Delay,
			Priority:        t.Priority,
		}
		if h, ok := r.handlers.Get(t.Target.Product); ok {
			rec.HandlerErr = r.invoke(ctx, h, rec, fireCtx)
		}
		fired = append(fired, rec)
	}
	return fired
}

// holds evaluates t's condition, treating a panic as false.
func (r *Registry) holds(t RegisteredTrigger, fireCtx map[string]any) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			ok = false
			err := fmt.Errorf("%w: %v", ErrConditionPanic, v)
			observability.LogConditionError(r.logger, t.Source.String(), t.Target.String(), err)
		}
	}()
	return t.Condition.Evaluate(fireCtx)
}

func (r *Registry) invoke(ctx context.Context, h Handler, rec TriggeredEvent, fireCtx map[string]any) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, v)
		}
		if err != nil {
			err = &HandlerError{Product: rec.TargetProduct, EventType: rec.TargetEventType, Err: err}
			observability.LogHandlerError(r.logger, rec.TargetProduct, rec.TargetEventType, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return h.HandleTrigger(ctx, rec.TargetEventType, rec, fireCtx)
}
