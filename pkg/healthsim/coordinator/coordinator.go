package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/randalmurphal/healthsim/pkg/healthsim/registry"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

// Coordinator owns the linked entities of a run, the shared trigger registry
// and the product engines.
//
// Engines and triggers are registered during setup. The first call to
// ExecuteCoordinated freezes both, after which any number of goroutines may
// advance distinct entities concurrently.
type Coordinator struct {
	cfg config

	mu       sync.RWMutex
	entities map[string]*LinkedEntity

	engines    *registry.Registry[string, Engine]
	triggers   *trigger.Registry
	freezeOnce sync.Once
}

// New creates a coordinator. Unless WithoutDefaultTriggers is given, the
// default cross-product triggers are installed.
func New(opts ...Option) (*Coordinator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.triggers == nil {
		cfg.triggers = trigger.NewRegistry(trigger.WithLogger(cfg.logger))
	}

	c := &Coordinator{
		cfg:      cfg,
		entities: make(map[string]*LinkedEntity),
		engines:  registry.New[string, Engine](),
		triggers: cfg.triggers,
	}
	if cfg.defaultTriggers {
		if err := InstallDefaultTriggers(c.triggers); err != nil {
			return nil, fmt.Errorf("install default triggers: %w", err)
		}
	}
	return c, nil
}

// Triggers returns the coordinator's trigger registry.
func (c *Coordinator) Triggers() *trigger.Registry {
	return c.triggers
}

// RegisterEngine sets the engine for product (last registration wins).
// Returns registry.ErrFrozen once an advance has started.
func (c *Coordinator) RegisterEngine(product string, e Engine) error {
	if product == "" {
		return fmt.Errorf("%w: empty product", ErrInvalidEntity)
	}
	if e == nil {
		return ErrNilEngine
	}
	return c.engines.Register(product, e)
}

// Engines returns the products that have an engine, sorted.
func (c *Coordinator) Engines() []string {
	return c.engines.Keys()
}

// CreateLinkedEntity registers a new entity for coreID.
func (c *Coordinator) CreateLinkedEntity(coreID string, productIDs map[string]string) (*LinkedEntity, error) {
	if coreID == "" {
		return nil, fmt.Errorf("%w: empty core id", ErrInvalidEntity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entities[coreID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityExists, coreID)
	}
	e := newLinkedEntity(coreID, productIDs, c.cfg.entityRand(coreID))
	c.entities[coreID] = e
	return e, nil
}

// Entity returns the entity for coreID.
func (c *Coordinator) Entity(coreID string) (*LinkedEntity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entities[coreID]
	return e, ok
}

// EntityIDs returns every core id, sorted.
func (c *Coordinator) EntityIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.entities))
}

// AddTimeline attaches tl to entity under product and cross-links it with
// the entity's other timelines in both directions. An existing timeline for
// product is replaced.
func (c *Coordinator) AddTimeline(entity *LinkedEntity, product string, tl *timeline.Timeline) error {
	if err := c.owns(entity); err != nil {
		return err
	}
	if product == "" || tl == nil {
		return fmt.Errorf("%w: timeline needs a product and a non-nil timeline", ErrInvalidEntity)
	}

	entity.mu.Lock()
	defer entity.mu.Unlock()
	entity.addTimeline(product, tl)
	return nil
}

// ProductEntity returns the payload an engine receives for product:
// core_id plus the product's natural identifier (patient_id, member_id,
// rx_member_id or subject_id) when known. Unknown products get core_id only.
func (c *Coordinator) ProductEntity(entity *LinkedEntity, product string) map[string]any {
	entity.mu.Lock()
	defer entity.mu.Unlock()
	return entity.productEntity(product)
}

// Restore replaces the entity's timelines with those in the snapshot store.
// It returns the restored products. Without a store it does nothing.
func (c *Coordinator) Restore(ctx context.Context, coreID string) ([]string, error) {
	entity, ok := c.Entity(coreID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, coreID)
	}
	store := c.cfg.snapshots
	if store == nil {
		return nil, nil
	}

	infos, err := store.List(ctx, coreID)
	if err != nil {
		return nil, &SnapshotError{CoreID: coreID, Op: "list", Err: err}
	}

	restored := make(map[string]*timeline.Timeline, len(infos))
	for _, info := range infos {
		data, err := store.Load(ctx, coreID, info.Product)
		if err != nil {
			return nil, &SnapshotError{CoreID: coreID, Product: info.Product, Op: "load", Err: err}
		}
		tl := new(timeline.Timeline)
		if err := json.Unmarshal(data, tl); err != nil {
			return nil, &SnapshotError{CoreID: coreID, Product: info.Product, Op: "decode", Err: err}
		}
		restored[info.Product] = tl
	}

	entity.mu.Lock()
	defer entity.mu.Unlock()
	products := slices.Sorted(maps.Keys(restored))
	for _, product := range products {
		entity.addTimeline(product, restored[product])
	}
	return products, nil
}

func (c *Coordinator) owns(entity *LinkedEntity) error {
	if entity == nil {
		return fmt.Errorf("%w: nil entity", ErrUnknownEntity)
	}
	if e, ok := c.Entity(entity.CoreID); !ok || e != entity {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity.CoreID)
	}
	return nil
}

func (c *Coordinator) freeze() {
	c.freezeOnce.Do(func() {
		c.engines.Freeze()
		c.triggers.Freeze()
	})
}
