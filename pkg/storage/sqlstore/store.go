// Package sqlstore provides a plain-tier storage backend on database/sql.
// On device it runs against an embedded sqlite database; development builds
// may point it at PostgreSQL instead. Both speak the same single-table
// key-value schema, bootstrapped idempotently at open.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/flaitravel/mobile-core/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Dialect selects the SQL placeholder style.
type Dialect string

const (
	// DialectSQLite uses ? placeholders (modernc.org/sqlite).
	DialectSQLite Dialect = "sqlite"

	// DialectPostgres uses $N placeholders (lib/pq).
	DialectPostgres Dialect = "postgres"
)

// Store implements storage.Store over a SQL database.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// New creates a store on db and bootstraps the kv table.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	sb := sq.StatementBuilder
	if dialect == DialectPostgres {
		sb = sb.PlaceholderFormat(sq.Dollar)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("sqlstore: bootstrapping schema: %w", err)
	}

	return &Store{db: db, sb: sb}, nil
}

// Get unmarshals the value for key into out, or returns storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string, out any) error {
	query, args, err := s.sb.Select("value").From("kv").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building get query: %w", err)
	}

	var raw string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlstore: querying %q: %w", key, err)
	}
	return json.Unmarshal([]byte(raw), out)
}

// Set marshals value and upserts it under key.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if key == "" {
		return storage.ErrInvalidKey
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	query, args, err := s.sb.Insert("kv").
		Columns("key", "value").
		Values(key, string(raw)).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building set query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlstore: upserting %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	query, args, err := s.sb.Delete("kv").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("sqlstore: building delete query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlstore: deleting %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Verify interface compliance.
var _ storage.Store = (*Store)(nil)
