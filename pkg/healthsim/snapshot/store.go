// Package snapshot persists serialised timelines between coordinated
// advances, keyed by linked entity and product.
//
// A coordinator configured with a Store saves every timeline of an entity
// after each advance and can restore them in a later process. Each Save of
// the same (core id, product) pair bumps its version.
package snapshot

import (
	"context"
	"errors"
	"time"
)

// Store persists timeline snapshots.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores data for (coreID, product), replacing any earlier snapshot.
	Save(ctx context.Context, coreID, product string, data []byte) error

	// Load returns the latest snapshot or ErrNotFound.
	Load(ctx context.Context, coreID, product string) ([]byte, error)

	// List returns metadata for every product saved under coreID, ordered
	// by product name. An unknown entity yields an empty slice.
	List(ctx context.Context, coreID string) ([]Info, error)

	// Delete removes one snapshot. Missing snapshots are not an error.
	Delete(ctx context.Context, coreID, product string) error

	// DeleteEntity removes every snapshot of coreID.
	DeleteEntity(ctx context.Context, coreID string) error

	// Close releases resources. It is idempotent.
	Close() error
}

// Info describes a snapshot without its payload.
type Info struct {
	CoreID  string    `json:"core_id" yaml:"core_id"`
	Product string    `json:"product" yaml:"product"`
	Version int       `json:"version" yaml:"version"`
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
	Size    int64     `json:"size_bytes" yaml:"size_bytes"`
}

var (
	// ErrNotFound indicates no snapshot exists for the key.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates use of a closed store.
	ErrStoreClosed = errors.New("snapshot store closed")
)
