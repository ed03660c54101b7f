package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bluniversal/comments/pkg/discussion"
)

func TestRemoteHMACCreator(t *testing.T) {
	t.Parallel()

	const secret = "topsecret"
	now := time.Unix(1700000000, 0)

	t.Run("sends a signed payload and returns the uri", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body struct {
				URL       string `json:"url"`
				Title     string `json:"title"`
				Timestamp int64  `json:"timestamp"`
				Hash      string `json:"hash"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "https://example.com/post", body.URL)
			require.Equal(t, "Title", body.Title)
			require.Equal(t, now.Unix(), body.Timestamp)
			require.True(t, discussion.VerifyRequest(secret, body.URL, body.Title, body.Timestamp, body.Hash))

			_ = json.NewEncoder(w).Encode(map[string]string{"uri": "at://minted"})
		}))
		t.Cleanup(srv.Close)

		c := &RemoteHMACCreator{
			EndpointURL:  srv.URL,
			SharedSecret: secret,
			Now:          func() time.Time { return now },
		}

		uri, err := c.CreatePost(context.Background(), "https://example.com/post", "Title")
		require.NoError(t, err)
		require.Equal(t, "at://minted", uri)
	})

	t.Run("maps the duplicate rejection to ErrPostExists", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "post_already_exists",
				"message": "a discussion post for this page already exists",
			})
		}))
		t.Cleanup(srv.Close)

		c := &RemoteHMACCreator{EndpointURL: srv.URL, SharedSecret: secret}
		_, err := c.CreatePost(context.Background(), "https://example.com/post", "Title")
		require.ErrorIs(t, err, ErrPostExists)
	})

	t.Run("other failures propagate as plain errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "server_error"})
		}))
		t.Cleanup(srv.Close)

		c := &RemoteHMACCreator{EndpointURL: srv.URL, SharedSecret: secret}
		_, err := c.CreatePost(context.Background(), "https://example.com/post", "Title")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrPostExists)
	})
}

func TestRemoteSessionCreator(t *testing.T) {
	t.Parallel()

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URL     string `json:"url"`
			Title   string `json:"title"`
			Session struct {
				AccessJwt  string `json:"accessJwt"`
				RefreshJwt string `json:"refreshJwt"`
			} `json:"sessionData"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "access-1", body.Session.AccessJwt)
		require.Equal(t, "refresh-1", body.Session.RefreshJwt)

		_ = json.NewEncoder(w).Encode(map[string]string{"uri": "at://minted"})
	}))
	t.Cleanup(endpoint.Close)

	st := newTestStore(t)
	m := &Manager{Client: newTestClient(t, pdsMux(t)), Store: st}
	require.NoError(t, m.Login(context.Background(), "alice.test", "hunter2"))

	c := &RemoteSessionCreator{EndpointURL: endpoint.URL, Manager: m}
	uri, err := c.CreatePost(context.Background(), "https://example.com/post", "Title")
	require.NoError(t, err)
	require.Equal(t, "at://minted", uri)
}
