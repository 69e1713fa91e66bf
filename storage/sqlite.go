package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailored-agentic-units/turnstate/storage/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists items in a single SQLite table. Conditional writes are
// checked inside a transaction, so the ETag contract holds across processes
// sharing the database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Read(ctx context.Context, keys ...string) (map[string]Item, error) {
	items := make(map[string]Item, len(keys))
	if len(keys) == 0 {
		return items, nil
	}

	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	query := "SELECT key, value, etag FROM turn_state WHERE key IN (" + placeholders(len(keys)) + ")"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key  string
			item Item
		)
		if err := rows.Scan(&key, &item.Value, &item.ETag); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
		items[key] = item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return items, nil
}

func (s *SQLiteStore) Write(ctx context.Context, changes map[string]Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrSaveFailed, err)
	}

	for key, change := range changes {
		if err := writeItem(ctx, tx, key, change); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrSaveFailed, err)
	}
	return nil
}

func writeItem(ctx context.Context, tx *sql.Tx, key string, change Item) error {
	if key == "" {
		return ErrInvalidKey
	}

	value := change.Value
	if value == nil {
		value = []byte{}
	}
	now := time.Now().UTC().UnixMilli()

	if !change.Unconditional() {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT etag FROM turn_state WHERE key = ?", key).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
		case current != change.ETag:
			return &ConflictError{Key: key, ExpectedETag: change.ETag, CurrentETag: current}
		}
	}

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO turn_state (key, value, etag, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   etag = excluded.etag,
		   updated_at = excluded.updated_at`,
		key,
		value,
		newETag(),
		now,
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM turn_state WHERE key IN ("+placeholders(len(keys))+")", args...); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
