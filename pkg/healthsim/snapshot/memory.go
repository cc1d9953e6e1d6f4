package snapshot

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	entities map[string]map[string]entry // coreID -> product -> entry
	closed   bool
}

type entry struct {
	data    []byte
	version int
	savedAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entities: make(map[string]map[string]entry)}
}

func (m *MemoryStore) Save(ctx context.Context, coreID, product string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}

	products := m.entities[coreID]
	if products == nil {
		products = make(map[string]entry)
		m.entities[coreID] = products
	}
	products[product] = entry{
		data:    slices.Clone(data),
		version: products[product].version + 1,
		savedAt: time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, coreID, product string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	e, ok := m.entities[coreID][product]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(e.data), nil
}

func (m *MemoryStore) List(ctx context.Context, coreID string) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.entities[coreID]))
	for product, e := range m.entities[coreID] {
		infos = append(infos, Info{
			CoreID:  coreID,
			Product: product,
			Version: e.version,
			SavedAt: e.savedAt,
			Size:    int64(len(e.data)),
		})
	}
	slices.SortFunc(infos, func(a, b Info) int { return cmp.Compare(a.Product, b.Product) })
	return infos, nil
}

func (m *MemoryStore) Delete(ctx context.Context, coreID, product string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}

	delete(m.entities[coreID], product)
	if len(m.entities[coreID]) == 0 {
		delete(m.entities, coreID)
	}
	return nil
}

func (m *MemoryStore) DeleteEntity(ctx context.Context, coreID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.entities, coreID)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entities = nil
	return nil
}
