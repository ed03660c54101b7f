package bsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultPDSURL is the personal data server used for authenticated calls.
	DefaultPDSURL = "https://bsky.social"

	// DefaultAppViewURL is the public AppView used for unauthenticated reads
	// such as post search.
	DefaultAppViewURL = "https://public.api.bsky.app"
)

// Client is a narrow AT Protocol client covering the slice of the API this
// system needs: session creation/refresh, record creation, thread retrieval
// and post search. It provides unauthenticated operations and can create
// authenticated Sessions.
type Client struct {
	PDSURL     string
	AppViewURL string
	HTTPClient *http.Client
}

// NewClient creates a client against the given PDS. Empty arguments fall
// back to the public Bluesky endpoints.
func NewClient(pdsURL, appViewURL string) *Client {
	if pdsURL == "" {
		pdsURL = DefaultPDSURL
	}
	if appViewURL == "" {
		appViewURL = DefaultAppViewURL
	}
	return &Client{
		PDSURL:     strings.TrimSuffix(pdsURL, "/"),
		AppViewURL: strings.TrimSuffix(appViewURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateSession exchanges an identifier and app password for an
// authenticated Session via com.atproto.server.createSession.
func (c *Client) CreateSession(ctx context.Context, identifier, password string) (*Session, error) {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var data SessionData
	if err := c.doXRPC(ctx, http.MethodPost, c.PDSURL, "com.atproto.server.createSession", nil, body, "", &data); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	data.Active = true

	return &Session{client: c, data: data, expiresAt: accessTokenExpiry(data.AccessJwt)}, nil
}

// ResumeSession rebuilds a Session from previously persisted fields. It does
// not call the network; pair it with Session.GetSession to confirm validity.
func (c *Client) ResumeSession(data SessionData) *Session {
	return &Session{client: c, data: data, expiresAt: accessTokenExpiry(data.AccessJwt)}
}

// doXRPC performs a single XRPC call and decodes the JSON response into out.
// An empty token leaves the request unauthenticated.
func (c *Client) doXRPC(
	ctx context.Context,
	method, base, nsid string,
	query url.Values,
	body any,
	token string,
	out any,
) error {
	endpoint := base + "/xrpc/" + nsid
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return decodeJSON(resp, out)
}

// decodeJSON reads the full response body, converting non-2xx responses into
// a typed *APIError and unmarshalling successful ones into out.
func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
