package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bluniversal/comments/pkg/discussion"
)

// DirectCreator posts the discussion record straight to the PDS with the
// logged-in user's own session.
type DirectCreator struct {
	Manager *Manager
}

func (c *DirectCreator) CreatePost(ctx context.Context, pageURL, title string) (string, error) {
	session, err := c.Manager.Session(ctx)
	if err != nil {
		return "", err
	}

	record := discussion.BuildRecord(pageURL, title, time.Now())
	resp, err := session.CreatePost(ctx, record)
	if err != nil {
		return "", err
	}
	return resp.URI, nil
}

// RemoteHMACCreator asks the post-creation endpoint to mint the post with
// bot credentials, proving authenticity with a timestamped HMAC over
// url|title|timestamp keyed by a secret shared with the endpoint.
type RemoteHMACCreator struct {
	EndpointURL  string
	SharedSecret string
	HTTPClient   *http.Client

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (c *RemoteHMACCreator) CreatePost(ctx context.Context, pageURL, title string) (string, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	timestamp := now().Unix()

	payload := map[string]any{
		"url":       pageURL,
		"title":     title,
		"timestamp": timestamp,
		"hash":      discussion.SignRequest(c.SharedSecret, pageURL, title, timestamp),
	}
	return postCreateRequest(ctx, c.httpClient(), c.EndpointURL, payload)
}

func (c *RemoteHMACCreator) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// RemoteSessionCreator asks the post-creation endpoint to mint the post,
// proving authenticity with the user's full session, which the endpoint
// validates against the PDS.
type RemoteSessionCreator struct {
	EndpointURL string
	Manager     *Manager
	HTTPClient  *http.Client
}

func (c *RemoteSessionCreator) CreatePost(ctx context.Context, pageURL, title string) (string, error) {
	session, err := c.Manager.Session(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"url":         pageURL,
		"title":       title,
		"sessionData": session.Data(),
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return postCreateRequest(ctx, client, c.EndpointURL, payload)
}

// postCreateRequest submits a creation request to the remote endpoint and
// decodes the {uri} response. An "already exists" rejection maps to
// ErrPostExists so the resolver can fall back to search.
func postCreateRequest(ctx context.Context, client *http.Client, endpointURL string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send create request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read create response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if jerr := json.Unmarshal(raw, &errResp); jerr == nil && errResp.Error == "post_already_exists" {
			return "", ErrPostExists
		}
		return "", fmt.Errorf("create post endpoint returned %d: %s", resp.StatusCode, string(raw))
	}

	var created struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if created.URI == "" {
		return "", fmt.Errorf("create post endpoint returned no uri")
	}
	return created.URI, nil
}

var (
	_ Creator = (*DirectCreator)(nil)
	_ Creator = (*RemoteHMACCreator)(nil)
	_ Creator = (*RemoteSessionCreator)(nil)
)
