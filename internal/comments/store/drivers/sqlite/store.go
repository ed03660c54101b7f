// Package sqlite implements the client store on an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bluniversal/comments/internal/comments/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single connection avoids table-lock contention between the repos;
	// the store sees at most a handful of writes per user action.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Sessions() store.Sessions   { return &sessionsRepo{db: s.db} }
func (s *Store) PostCache() store.PostCache { return &postCacheRepo{db: s.db} }
func (s *Store) Meta() store.Meta           { return &metaRepo{db: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
