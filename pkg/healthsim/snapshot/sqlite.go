package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registers "sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS timeline_snapshots (
	core_id  TEXT    NOT NULL,
	product  TEXT    NOT NULL,
	version  INTEGER NOT NULL,
	saved_at TEXT    NOT NULL,
	data     BLOB    NOT NULL,
	PRIMARY KEY (core_id, product)
)`

// SQLiteStore persists snapshots in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialise snapshot schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, coreID, product string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timeline_snapshots (core_id, product, version, saved_at, data)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(core_id, product) DO UPDATE SET
			version  = timeline_snapshots.version + 1,
			saved_at = excluded.saved_at,
			data     = excluded.data
	`, coreID, product, time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save snapshot %s/%s: %w", coreID, product, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, coreID, product string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM timeline_snapshots WHERE core_id = ? AND product = ?`,
		coreID, product,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s/%s: %w", coreID, product, err)
	}
	return data, nil
}

func (s *SQLiteStore) List(ctx context.Context, coreID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product, version, saved_at, LENGTH(data)
		FROM timeline_snapshots
		WHERE core_id = ?
		ORDER BY product
	`, coreID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots %s: %w", coreID, err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		info := Info{CoreID: coreID}
		var savedAt string
		if err := rows.Scan(&info.Product, &info.Version, &savedAt, &info.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot info: %w", err)
		}
		info.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, coreID, product string) error {
	return s.exec(ctx, "delete snapshot",
		`DELETE FROM timeline_snapshots WHERE core_id = ? AND product = ?`, coreID, product)
}

func (s *SQLiteStore) DeleteEntity(ctx context.Context, coreID string) error {
	return s.exec(ctx, "delete entity snapshots",
		`DELETE FROM timeline_snapshots WHERE core_id = ?`, coreID)
}

func (s *SQLiteStore) exec(ctx context.Context, op, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
