package bsky

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.URL)
}

func writeXRPCError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

func TestCreateSession(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "alice.test", body["identifier"])
		require.Equal(t, "hunter2", body["password"])

		_ = json.NewEncoder(w).Encode(SessionData{
			AccessJwt:  "access-1",
			RefreshJwt: "refresh-1",
			Handle:     "alice.test",
			DID:        "did:plc:alice",
		})
	})

	client := newTestClient(t, mux)
	session, err := client.CreateSession(context.Background(), "alice.test", "hunter2")
	require.NoError(t, err)

	data := session.Data()
	require.True(t, data.Complete())
	require.True(t, data.Active)
	require.Equal(t, "did:plc:alice", session.DID())
	require.Equal(t, "alice.test", session.Handle())
}

func TestCreateSessionRejected(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		writeXRPCError(w, http.StatusUnauthorized, "AuthenticationRequired", "Invalid identifier or password")
	})

	client := newTestClient(t, mux)
	_, err := client.CreateSession(context.Background(), "alice.test", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "AuthenticationRequired", apiErr.Code)
}

func TestSessionRefreshRetry(t *testing.T) {
	t.Parallel()

	t.Run("expired token refreshes and retries once", func(t *testing.T) {
		var refreshes int
		mux := http.NewServeMux()
		mux.HandleFunc("GET /xrpc/com.atproto.server.getSession", func(w http.ResponseWriter, r *http.Request) {
			switch r.Header.Get("Authorization") {
			case "Bearer access-2":
				_ = json.NewEncoder(w).Encode(map[string]string{"handle": "alice.test", "did": "did:plc:alice"})
			default:
				writeXRPCError(w, http.StatusBadRequest, "ExpiredToken", "Token has expired")
			}
		})
		mux.HandleFunc("POST /xrpc/com.atproto.server.refreshSession", func(w http.ResponseWriter, r *http.Request) {
			refreshes++
			require.Equal(t, "Bearer refresh-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(SessionData{
				AccessJwt:  "access-2",
				RefreshJwt: "refresh-2",
				Handle:     "alice.test",
				DID:        "did:plc:alice",
			})
		})

		client := newTestClient(t, mux)
		session := client.ResumeSession(SessionData{
			AccessJwt:  "access-1",
			RefreshJwt: "refresh-1",
			Handle:     "alice.test",
			DID:        "did:plc:alice",
			Active:     true,
		})

		var rotated []SessionData
		session.OnRefresh = func(d SessionData) { rotated = append(rotated, d) }

		require.NoError(t, session.GetSession(context.Background()))
		require.Equal(t, 1, refreshes)
		require.Equal(t, "access-2", session.Data().AccessJwt)
		require.Equal(t, "refresh-2", session.Data().RefreshJwt)
		require.Len(t, rotated, 1)
	})

	t.Run("failed refresh propagates without second retry", func(t *testing.T) {
		var getSessions, refreshes int
		mux := http.NewServeMux()
		mux.HandleFunc("GET /xrpc/com.atproto.server.getSession", func(w http.ResponseWriter, r *http.Request) {
			getSessions++
			writeXRPCError(w, http.StatusBadRequest, "ExpiredToken", "Token has expired")
		})
		mux.HandleFunc("POST /xrpc/com.atproto.server.refreshSession", func(w http.ResponseWriter, r *http.Request) {
			refreshes++
			writeXRPCError(w, http.StatusBadRequest, "ExpiredToken", "Refresh token expired")
		})

		client := newTestClient(t, mux)
		session := client.ResumeSession(SessionData{
			AccessJwt:  "access-1",
			RefreshJwt: "refresh-1",
			Handle:     "alice.test",
			DID:        "did:plc:alice",
		})

		err := session.GetSession(context.Background())
		require.Error(t, err)
		require.True(t, IsExpiredToken(err))
		require.Equal(t, 1, getSessions)
		require.Equal(t, 1, refreshes)
	})

	t.Run("refresh without token fails fast", func(t *testing.T) {
		client := newTestClient(t, http.NewServeMux())
		session := client.ResumeSession(SessionData{AccessJwt: "access-1"})
		require.ErrorIs(t, session.Refresh(context.Background()), ErrNoRefreshToken)
	})
}

func TestSessionDelete(t *testing.T) {
	t.Parallel()

	var deleted bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /xrpc/com.atproto.server.deleteSession", func(w http.ResponseWriter, r *http.Request) {
		// deleteSession is authenticated by the refresh token.
		require.Equal(t, "Bearer refresh-1", r.Header.Get("Authorization"))
		deleted = true
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	session := client.ResumeSession(SessionData{
		AccessJwt:  "access-1",
		RefreshJwt: "refresh-1",
		Handle:     "alice.test",
		DID:        "did:plc:alice",
	})

	require.NoError(t, session.Delete(context.Background()))
	require.True(t, deleted)
}

func TestIsExpiredToken(t *testing.T) {
	t.Parallel()

	require.True(t, IsExpiredToken(&APIError{StatusCode: 400, Code: "ExpiredToken"}))
	require.True(t, IsExpiredToken(&APIError{StatusCode: 400, Code: "InvalidToken"}))
	require.True(t, IsExpiredToken(&APIError{StatusCode: 401, Code: "Unauthorized"}))
	require.False(t, IsExpiredToken(&APIError{StatusCode: 400, Code: "InvalidRequest"}))
	require.False(t, IsExpiredToken(context.Canceled))
}
