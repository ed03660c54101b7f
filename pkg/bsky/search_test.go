package bsky

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchByTag(t *testing.T) {
	t.Parallel()

	t.Run("queries the AppView with tag, limit and sort", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /xrpc/app.bsky.feed.searchPosts", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			require.Equal(t, "bluniversal-abc", q.Get("q"))
			require.Equal(t, "1", q.Get("limit"))
			require.Equal(t, "top", q.Get("sort"))
			require.Equal(t, "bot.example.com", q.Get("author"))
			require.Empty(t, r.Header.Get("Authorization"))

			_ = json.NewEncoder(w).Encode(searchPostsResponse{
				Posts: []PostView{{URI: "at://did:plc:bot/app.bsky.feed.post/1"}},
			})
		})

		client := newTestClient(t, mux)
		uri, err := client.SearchByTag(context.Background(), "bluniversal-abc", "bot.example.com")
		require.NoError(t, err)
		require.Equal(t, "at://did:plc:bot/app.bsky.feed.post/1", uri)
	})

	t.Run("omits author filter when empty", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /xrpc/app.bsky.feed.searchPosts", func(w http.ResponseWriter, r *http.Request) {
			require.False(t, r.URL.Query().Has("author"))
			_ = json.NewEncoder(w).Encode(searchPostsResponse{})
		})

		client := newTestClient(t, mux)
		uri, err := client.SearchByTag(context.Background(), "bluniversal-abc", "")
		require.NoError(t, err)
		require.Empty(t, uri)
	})

	t.Run("no match yields empty uri without error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /xrpc/app.bsky.feed.searchPosts", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(searchPostsResponse{Posts: []PostView{}})
		})

		client := newTestClient(t, mux)
		uri, err := client.SearchByTag(context.Background(), "bluniversal-abc", "")
		require.NoError(t, err)
		require.Empty(t, uri)
	})
}
