package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluniversal/comments/internal/comments/domain"
	"github.com/bluniversal/comments/internal/comments/store"
	"github.com/bluniversal/comments/internal/comments/store/drivers/sqlite"
	"github.com/bluniversal/comments/pkg/bsky"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestClient(t *testing.T, handler http.Handler) *bsky.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return bsky.NewClient(srv.URL, srv.URL)
}

func pdsMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(bsky.SessionData{
			AccessJwt:  "access-1",
			RefreshJwt: "refresh-1",
			Handle:     "alice.test",
			DID:        "did:plc:alice",
		})
	})
	return mux
}

func TestManagerLogin(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	m := &Manager{Client: newTestClient(t, pdsMux(t)), Store: st}
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "alice.test", "hunter2"))

	t.Run("persists the session fields", func(t *testing.T) {
		data, err := st.Sessions().Get(ctx)
		require.NoError(t, err)
		require.Equal(t, "access-1", data.AccessJwt)
		require.Equal(t, "did:plc:alice", data.DID)
		require.True(t, data.Active)
	})

	t.Run("session is immediately usable", func(t *testing.T) {
		session, err := m.Session(ctx)
		require.NoError(t, err)
		require.Equal(t, "alice.test", session.Handle())
	})
}

func TestManagerResume(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	client := newTestClient(t, pdsMux(t))
	ctx := context.Background()

	t.Run("empty storage resumes nothing", func(t *testing.T) {
		m := &Manager{Client: client, Store: st}
		resumed, err := m.Initialize(ctx)
		require.NoError(t, err)
		require.False(t, resumed)

		_, err = m.Session(ctx)
		require.ErrorIs(t, err, domain.ErrNotLoggedIn)
	})

	t.Run("incomplete fields resume nothing", func(t *testing.T) {
		require.NoError(t, st.Sessions().Put(ctx, bsky.SessionData{AccessJwt: "only-access"}))

		m := &Manager{Client: client, Store: st}
		resumed, err := m.Initialize(ctx)
		require.NoError(t, err)
		require.False(t, resumed)
	})

	t.Run("complete fields resume a session", func(t *testing.T) {
		require.NoError(t, st.Sessions().Put(ctx, bsky.SessionData{
			AccessJwt:  "access-1",
			RefreshJwt: "refresh-1",
			Handle:     "alice.test",
			DID:        "did:plc:alice",
			Active:     true,
		}))

		m := &Manager{Client: client, Store: st}
		resumed, err := m.Initialize(ctx)
		require.NoError(t, err)
		require.True(t, resumed)

		session, err := m.Session(ctx)
		require.NoError(t, err)
		require.Equal(t, "did:plc:alice", session.DID())
	})
}

func TestManagerRefreshPersists(t *testing.T) {
	t.Parallel()

	mux := pdsMux(t)
	mux.HandleFunc("POST /xrpc/com.atproto.server.refreshSession", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer refresh-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(bsky.SessionData{
			AccessJwt:  "access-2",
			RefreshJwt: "refresh-2",
			Handle:     "alice.test",
			DID:        "did:plc:alice",
		})
	})

	st := newTestStore(t)
	m := &Manager{Client: newTestClient(t, mux), Store: st}
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "alice.test", "hunter2"))
	require.NoError(t, m.Refresh(ctx))

	// The rotated pair must land in storage, or the next process start
	// resumes dead tokens.
	data, err := st.Sessions().Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "access-2", data.AccessJwt)
	require.Equal(t, "refresh-2", data.RefreshJwt)
}

func TestManagerRefreshExpired(t *testing.T) {
	t.Parallel()

	mux := pdsMux(t)
	mux.HandleFunc("POST /xrpc/com.atproto.server.refreshSession", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "ExpiredToken"})
	})

	st := newTestStore(t)
	m := &Manager{Client: newTestClient(t, mux), Store: st}
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "alice.test", "hunter2"))
	require.ErrorIs(t, m.Refresh(ctx), domain.ErrSessionExpired)

	// A rejected refresh token is terminal, so stored state is cleared.
	_, err := st.Sessions().Get(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = m.Session(ctx)
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestManagerLogout(t *testing.T) {
	t.Parallel()

	var deleted bool
	mux := pdsMux(t)
	mux.HandleFunc("POST /xrpc/com.atproto.server.deleteSession", func(w http.ResponseWriter, r *http.Request) {
		deleted = true
		w.WriteHeader(http.StatusOK)
	})

	st := newTestStore(t)
	m := &Manager{Client: newTestClient(t, mux), Store: st}
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, "alice.test", "hunter2"))
	require.NoError(t, m.Logout(ctx))
	require.True(t, deleted)

	_, err := st.Sessions().Get(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = m.Session(ctx)
	require.ErrorIs(t, err, domain.ErrNotLoggedIn)
}

func TestManagerValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid session", func(t *testing.T) {
		mux := pdsMux(t)
		mux.HandleFunc("GET /xrpc/com.atproto.server.getSession", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"handle": "alice.test", "did": "did:plc:alice"})
		})

		m := &Manager{Client: newTestClient(t, mux), Store: newTestStore(t)}
		ctx := context.Background()
		require.NoError(t, m.Login(ctx, "alice.test", "hunter2"))
		require.True(t, m.IsLoggedIn(ctx))
	})

	t.Run("dead session yields false", func(t *testing.T) {
		mux := pdsMux(t)
		mux.HandleFunc("GET /xrpc/com.atproto.server.getSession", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "ExpiredToken"})
		})
		mux.HandleFunc("POST /xrpc/com.atproto.server.refreshSession", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "ExpiredToken"})
		})

		m := &Manager{Client: newTestClient(t, mux), Store: newTestStore(t)}
		ctx := context.Background()
		require.NoError(t, m.Login(ctx, "alice.test", "hunter2"))
		require.False(t, m.IsLoggedIn(ctx))
	})

	t.Run("not logged in yields false", func(t *testing.T) {
		m := &Manager{Client: newTestClient(t, pdsMux(t)), Store: newTestStore(t)}
		require.False(t, m.IsLoggedIn(context.Background()))
	})
}
