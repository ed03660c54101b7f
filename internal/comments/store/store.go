// Package store defines the client's persistence interface. The concrete
// sqlite driver lives in the drivers subpackage. The store stands in for the
// extension's key/value storage: a single session row, a page-to-post cache
// and a small metadata table. Writers are last-write-wins per key; no
// transactional guarantees are offered or needed.
package store

import (
	"context"
	"errors"

	"github.com/bluniversal/comments/pkg/bsky"
)

// ErrNotFound reports a missing row.
var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface.
type Store interface {
	Sessions() Sessions
	PostCache() PostCache
	Meta() Meta

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Sessions persists the single authenticated session. Get returns
// ErrNotFound when no session is stored.
type Sessions interface {
	Get(ctx context.Context) (bsky.SessionData, error)
	Put(ctx context.Context, data bsky.SessionData) error
	Clear(ctx context.Context) error
}

// PostCache maps page keys to resolved discussion post URIs.
type PostCache interface {
	Get(ctx context.Context, pageKey string) (string, error)
	Put(ctx context.Context, pageKey, postURI string) error
}

// Meta is a small key/value table for install metadata (install timestamp,
// promo dismissal flag).
type Meta interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
