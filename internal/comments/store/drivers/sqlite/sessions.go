package sqlite

import (
	"context"
	"database/sql"

	"github.com/bluniversal/comments/pkg/bsky"
)

type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) Get(ctx context.Context) (bsky.SessionData, error) {
	var (
		data   bsky.SessionData
		active int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT access_jwt, refresh_jwt, did, handle, active FROM session WHERE id = 1`,
	).Scan(&data.AccessJwt, &data.RefreshJwt, &data.DID, &data.Handle, &active)
	if err != nil {
		return bsky.SessionData{}, mapNotFound(err)
	}
	data.Active = active != 0

	return data, nil
}

func (r *sessionsRepo) Put(ctx context.Context, data bsky.SessionData) error {
	active := 0
	if data.Active {
		active = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, access_jwt, refresh_jwt, did, handle, active, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			access_jwt  = excluded.access_jwt,
			refresh_jwt = excluded.refresh_jwt,
			did         = excluded.did,
			handle      = excluded.handle,
			active      = excluded.active,
			updated_at  = CURRENT_TIMESTAMP`,
		data.AccessJwt, data.RefreshJwt, data.DID, data.Handle, active,
	)
	return err
}

func (r *sessionsRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`)
	return err
}
