package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested revision does not exist.
var ErrNotFound = errors.New("not found")

// DefaultHistoryLimit is how many previous values are kept per key.
const DefaultHistoryLimit = 20

// Revision is a previous value of a key, recorded when it was overwritten.
type Revision struct {
	ID      int64     `db:"id"`
	Key     string    `db:"key"`
	Value   string    `db:"value"`
	SavedAt time.Time `db:"saved_at"`
}

// Store persists named string blobs.
type Store interface {
	// GetString returns the value under key. The bool is false when the key
	// has never been set.
	GetString(ctx context.Context, key string) (string, bool, error)

	// SetString stores value under key, keeping the previous value as a
	// revision.
	SetString(ctx context.Context, key, value string) error

	Delete(ctx context.Context, key string) error

	// History returns up to limit revisions of key, newest first.
	History(ctx context.Context, key string, limit int) ([]Revision, error)

	// Revision returns a single revision by id.
	Revision(ctx context.Context, id int64) (*Revision, error)

	Close() error
}
