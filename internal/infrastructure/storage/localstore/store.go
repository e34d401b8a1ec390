// Package localstore provides the client's persistent key/value storage on
// SQLite. It outlives the process the way browser local storage outlives a
// page, and backs the session token Holder.
package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	_ "modernc.org/sqlite"

	"spareparts/internal/core/token"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const table = "local_storage"

const schema = `
CREATE TABLE IF NOT EXISTS local_storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

var _ token.Store = (*Store)(nil)

// Entry is one stored value.
type Entry struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt int64  `db:"updated_at"` // unix seconds
}

// Updated returns UpdatedAt as a time.
func (e Entry) Updated() time.Time {
	return time.Unix(e.UpdatedAt, 0)
}

// Store is a SQLite-backed token.Store.
type Store struct {
	db      *sql.DB
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the
// schema. MemoryPath gives a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		now:     time.Now,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry stored under key, or token.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (Entry, error) {
	q := s.builder.Select("key", "value", "updated_at").
		From(table).
		Where(squirrel.Eq{"key": key}).
		Limit(1)

	query, args, err := q.ToSql()
	if err != nil {
		return Entry{}, fmt.Errorf("build query: %w", err)
	}

	var e Entry
	if err := sqlscan.Get(ctx, s.db, &e, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return Entry{}, token.ErrNotFound
		}
		return Entry{}, fmt.Errorf("get %q: %w", key, err)
	}
	return e, nil
}

// Load implements token.Store.
func (s *Store) Load(ctx context.Context, key string) (string, error) {
	e, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// Save implements token.Store. An existing value is overwritten.
func (s *Store) Save(ctx context.Context, key, value string) error {
	q := s.builder.Insert(table).
		Columns("key", "value", "updated_at").
		Values(key, value, s.now().Unix()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at")

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Delete implements token.Store. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	query, args, err := s.builder.Delete(table).Where(squirrel.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// List returns every entry ordered by key.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	query, args, err := s.builder.Select("key", "value", "updated_at").
		From(table).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []Entry
	if err := sqlscan.Select(ctx, s.db, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}
