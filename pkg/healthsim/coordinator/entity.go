package coordinator

import (
	"maps"
	"slices"
	"sync"

	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
)

// Natural identifier key per product, as handed to engines.
var productIDKeys = map[string]string{
	"patientsim":  "patient_id",
	"membersim":   "member_id",
	"rxmembersim": "rx_member_id",
	"trialsim":    "subject_id",
}

// LinkedEntity ties one core identity to its per-product identifiers and
// timelines. Advances of the same entity are serialised.
type LinkedEntity struct {
	CoreID string

	mu         sync.Mutex
	productIDs map[string]string
	timelines  map[string]*timeline.Timeline
	rng        timeline.RandomSource
}

func newLinkedEntity(coreID string, productIDs map[string]string, rng timeline.RandomSource) *LinkedEntity {
	ids := maps.Clone(productIDs)
	if ids == nil {
		ids = make(map[string]string)
	}
	return &LinkedEntity{
		CoreID:     coreID,
		productIDs: ids,
		timelines:  make(map[string]*timeline.Timeline),
		rng:        rng,
	}
}

// ProductID returns the natural identifier for product.
func (e *LinkedEntity) ProductID(product string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.productIDs[product]
	return id, ok
}

// ProductIDs returns a copy of the identifier map.
func (e *LinkedEntity) ProductIDs() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.productIDs)
}

// SetProductID adds or replaces the identifier for product.
func (e *LinkedEntity) SetProductID(product, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.productIDs[product] = id
}

// Timeline returns the timeline for product.
func (e *LinkedEntity) Timeline(product string) (*timeline.Timeline, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tl, ok := e.timelines[product]
	return tl, ok
}

// Products returns the products that have a timeline, sorted.
func (e *LinkedEntity) Products() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Sorted(maps.Keys(e.timelines))
}

// ScheduleTimelines schedules every timeline with the entity's own random
// source, in product order so results are reproducible.
func (e *LinkedEntity) ScheduleTimelines() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, product := range slices.Sorted(maps.Keys(e.timelines)) {
		if err := e.timelines[product].ScheduleEvents(e.rng); err != nil {
			return err
		}
	}
	return nil
}

// addTimeline stores tl and cross-links it with every other product.
// Caller holds e.mu.
func (e *LinkedEntity) addTimeline(product string, tl *timeline.Timeline) {
	for other, sibling := range e.timelines {
		if other == product {
			continue
		}
		tl.LinkTimeline(other)
		sibling.LinkTimeline(product)
	}
	e.timelines[product] = tl
}

// productEntity builds the engine payload for product. Caller holds e.mu.
func (e *LinkedEntity) productEntity(product string) map[string]any {
	pe := map[string]any{"core_id": e.CoreID}
	key, known := productIDKeys[product]
	if !known {
		return pe
	}
	if id, ok := e.productIDs[product]; ok {
		pe[key] = id
	}
	return pe
}
