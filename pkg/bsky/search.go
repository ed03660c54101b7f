package bsky

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type searchPostsResponse struct {
	Posts []PostView `json:"posts"`
}

// SearchByTag queries the public AppView for the single most relevant post
// carrying the given tag, optionally restricted to one author. Returns an
// empty URI when nothing matches. The call is unauthenticated.
func (c *Client) SearchByTag(ctx context.Context, tag, author string) (string, error) {
	query := url.Values{
		"q":     {tag},
		"limit": {"1"},
		"sort":  {"top"},
	}
	if author != "" {
		query.Set("author", author)
	}

	var resp searchPostsResponse
	err := c.doXRPC(ctx, http.MethodGet, c.AppViewURL, "app.bsky.feed.searchPosts", query, nil, "", &resp)
	if err != nil {
		return "", fmt.Errorf("search posts: %w", err)
	}

	if len(resp.Posts) == 0 || resp.Posts[0].URI == "" {
		return "", nil
	}
	return resp.Posts[0].URI, nil
}
