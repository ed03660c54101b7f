package sqlite

import (
	"context"
	"database/sql"
)

type postCacheRepo struct {
	db *sql.DB
}

func (r *postCacheRepo) Get(ctx context.Context, pageKey string) (string, error) {
	var uri string
	err := r.db.QueryRowContext(ctx,
		`SELECT post_uri FROM post_cache WHERE page_key = ?`, pageKey,
	).Scan(&uri)
	if err != nil {
		return "", mapNotFound(err)
	}
	return uri, nil
}

func (r *postCacheRepo) Put(ctx context.Context, pageKey, postURI string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO post_cache (page_key, post_uri)
		VALUES (?, ?)
		ON CONFLICT (page_key) DO UPDATE SET post_uri = excluded.post_uri`,
		pageKey, postURI,
	)
	return err
}
