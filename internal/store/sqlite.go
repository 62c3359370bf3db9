package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db           *sqlx.DB
	historyLimit int
	now          func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: the store has a single owner, and ":memory:" databases
	// are per connection.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:           db,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// SetHistoryLimit changes how many revisions are kept per key. Zero or
// less disables history.
func (s *SQLiteStore) SetHistoryLimit(n int) {
	s.historyLimit = n
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// GetString returns the value stored under key.
func (s *SQLiteStore) GetString(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM blobs WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %s: %w", key, err)
	}
	return value, true, nil
}

// SetString replaces the value under key. A changed previous value is
// copied into blob_history, which is trimmed to the history limit.
func (s *SQLiteStore) SetString(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()

	var previous string
	err = tx.GetContext(ctx, &previous, "SELECT value FROM blobs WHERE key = ?", key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading previous %s: %w", key, err)
	case previous != value && s.historyLimit > 0:
		_, err = tx.ExecContext(ctx,
			"INSERT INTO blob_history (key, value, saved_at) VALUES (?, ?, ?)",
			key, previous, now,
		)
		if err != nil {
			return fmt.Errorf("recording revision of %s: %w", key, err)
		}
		_, err = tx.ExecContext(ctx, `
			DELETE FROM blob_history
			WHERE key = ? AND id NOT IN (
				SELECT id FROM blob_history WHERE key = ? ORDER BY id DESC LIMIT ?
			)`,
			key, key, s.historyLimit,
		)
		if err != nil {
			return fmt.Errorf("trimming history of %s: %w", key, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	return tx.Commit()
}

// Delete removes key and its history.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM blobs WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM blob_history WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting history of %s: %w", key, err)
	}

	return tx.Commit()
}

// History returns up to limit revisions of key, newest first.
func (s *SQLiteStore) History(ctx context.Context, key string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}

	var revs []Revision
	err := s.db.SelectContext(ctx, &revs, `
		SELECT id, key, value, saved_at FROM blob_history
		WHERE key = ? ORDER BY id DESC LIMIT ?`,
		key, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history of %s: %w", key, err)
	}
	return revs, nil
}

// Revision returns a single revision by id.
func (s *SQLiteStore) Revision(ctx context.Context, id int64) (*Revision, error) {
	var rev Revision
	err := s.db.GetContext(ctx, &rev,
		"SELECT id, key, value, saved_at FROM blob_history WHERE id = ?", id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revision %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting revision %d: %w", id, err)
	}
	return &rev, nil
}
