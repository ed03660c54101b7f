package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluniversal/comments/internal/comments/store"
	"github.com/bluniversal/comments/pkg/bsky"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestSessions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	data := bsky.SessionData{
		AccessJwt:  "access-1",
		RefreshJwt: "refresh-1",
		Handle:     "alice.test",
		DID:        "did:plc:alice",
		Active:     true,
	}

	t.Run("empty store reports not found", func(t *testing.T) {
		_, err := s.Sessions().Get(ctx)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("round trips all fields", func(t *testing.T) {
		require.NoError(t, s.Sessions().Put(ctx, data))

		got, err := s.Sessions().Get(ctx)
		require.NoError(t, err)
		require.Equal(t, data, got)
	})

	t.Run("put replaces the single row", func(t *testing.T) {
		rotated := data
		rotated.AccessJwt = "access-2"
		rotated.RefreshJwt = "refresh-2"
		require.NoError(t, s.Sessions().Put(ctx, rotated))

		got, err := s.Sessions().Get(ctx)
		require.NoError(t, err)
		require.Equal(t, rotated, got)
	})

	t.Run("clear removes the session", func(t *testing.T) {
		require.NoError(t, s.Sessions().Clear(ctx))
		_, err := s.Sessions().Get(ctx)
		require.ErrorIs(t, err, store.ErrNotFound)

		// Clearing an already empty store is fine.
		require.NoError(t, s.Sessions().Clear(ctx))
	})
}

func TestPostCache(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("miss reports not found", func(t *testing.T) {
		_, err := s.PostCache().Get(ctx, "https://example.com/post")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("round trips and upserts", func(t *testing.T) {
		require.NoError(t, s.PostCache().Put(ctx, "https://example.com/post", "at://one"))

		uri, err := s.PostCache().Get(ctx, "https://example.com/post")
		require.NoError(t, err)
		require.Equal(t, "at://one", uri)

		require.NoError(t, s.PostCache().Put(ctx, "https://example.com/post", "at://two"))
		uri, err = s.PostCache().Get(ctx, "https://example.com/post")
		require.NoError(t, err)
		require.Equal(t, "at://two", uri)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, s.PostCache().Put(ctx, "https://example.com/other", "at://other"))

		uri, err := s.PostCache().Get(ctx, "https://example.com/other")
		require.NoError(t, err)
		require.Equal(t, "at://other", uri)
	})
}

func TestMeta(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("missing key reports not found", func(t *testing.T) {
		_, err := s.Meta().Get(ctx, "installed_at")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, s.Meta().Set(ctx, "installed_at", "1700000000"))

		value, err := s.Meta().Get(ctx, "installed_at")
		require.NoError(t, err)
		require.Equal(t, "1700000000", value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, s.Meta().Set(ctx, "installed_at", "1800000000"))

		value, err := s.Meta().Get(ctx, "installed_at")
		require.NoError(t, err)
		require.Equal(t, "1800000000", value)
	})
}

func TestPing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
