package registry

import (
	"cmp"
	"errors"
	"maps"
	"slices"
	"sync"
)

// Sentinel errors for registry mutation.
var (
	// ErrFrozen indicates a write to a registry after Freeze.
	ErrFrozen = errors.New("registry is frozen")

	// ErrExists indicates Add was called with a key that is already present.
	ErrExists = errors.New("key already registered")
)

// Registry is a thread-safe map guarded by sync.RWMutex for read-heavy use.
// Once frozen it rejects every write, which lets many goroutines read it
// without coordinating with setup code.
type Registry[K cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	frozen  bool
}

// New creates an empty, unfrozen registry.
func New[K cmp.Ordered, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
	}
}

// Register adds or replaces the value for key (last registration wins).
func (r *Registry[K, V]) Register(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	r.entries[key] = value
	return nil
}

// Add stores value only if key is absent. Returns ErrExists otherwise.
func (r *Registry[K, V]) Add(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	if _, ok := r.entries[key]; ok {
		return ErrExists
	}
	r.entries[key] = value
	return nil
}

// Get returns the value for a key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Has returns true if the key exists in the registry.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Delete removes a key. Deleting a missing key is not an error.
func (r *Registry[K, V]) Delete(key K) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrFrozen
	}
	delete(r.entries, key)
	return nil
}

// Keys returns all keys in ascending order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// Len returns the number of entries in the registry.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Range calls fn for each entry in ascending key order until fn returns
// false. It iterates over a snapshot, so fn may write to the registry.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.mu.RLock()
	snapshot := maps.Clone(r.entries)
	r.mu.RUnlock()

	for _, k := range slices.Sorted(maps.Keys(snapshot)) {
		if !fn(k, snapshot[k]) {
			return
		}
	}
}

// Freeze makes the registry read-only. It is idempotent.
func (r *Registry[K, V]) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry[K, V]) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
