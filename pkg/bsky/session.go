package bsky

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionData holds the persistable fields of an authenticated session.
// Either all fields are set or none are; a partially populated value is not
// a valid session.
type SessionData struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
	Active     bool   `json:"active"`
}

// Complete reports whether the session data carries everything needed to
// resume a session.
func (d SessionData) Complete() bool {
	return d.AccessJwt != "" && d.RefreshJwt != "" && d.Handle != "" && d.DID != ""
}

// Session is an authenticated handle against the PDS. Authenticated calls
// retry exactly once after a token refresh when the API reports an expired
// access token; a second failure propagates to the caller.
type Session struct {
	client *Client

	// OnRefresh, when set, is invoked with the new session fields after a
	// successful refresh so the caller can persist them.
	OnRefresh func(SessionData)

	mu        sync.RWMutex
	data      SessionData
	expiresAt time.Time
}

// Data returns a copy of the current session fields.
func (s *Session) Data() SessionData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// DID returns the authenticated account's DID.
func (s *Session) DID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.DID
}

// Handle returns the authenticated account's handle.
func (s *Session) Handle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Handle
}

// Refresh obtains a new access/refresh token pair via
// com.atproto.server.refreshSession and updates the session in place.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	refreshJwt := s.data.RefreshJwt
	s.mu.RUnlock()

	if refreshJwt == "" {
		return ErrNoRefreshToken
	}

	var refreshed SessionData
	err := s.client.doXRPC(ctx, http.MethodPost, s.client.PDSURL,
		"com.atproto.server.refreshSession", nil, nil, refreshJwt, &refreshed)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	refreshed.Active = true

	s.mu.Lock()
	s.data = refreshed
	s.expiresAt = accessTokenExpiry(refreshed.AccessJwt)
	hook := s.OnRefresh
	s.mu.Unlock()

	if hook != nil {
		hook(refreshed)
	}
	return nil
}

// GetSession validates the current access token against the PDS via
// com.atproto.server.getSession.
func (s *Session) GetSession(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "com.atproto.server.getSession", nil, nil, nil)
}

// Delete invalidates the refresh token server-side via
// com.atproto.server.deleteSession. The refresh token, not the access token,
// authenticates this call.
func (s *Session) Delete(ctx context.Context) error {
	s.mu.RLock()
	refreshJwt := s.data.RefreshJwt
	s.mu.RUnlock()

	if refreshJwt == "" {
		return ErrNoRefreshToken
	}

	return s.client.doXRPC(ctx, http.MethodPost, s.client.PDSURL,
		"com.atproto.server.deleteSession", nil, nil, refreshJwt, nil)
}

// do performs an authenticated XRPC call, refreshing the session and
// retrying once if the access token has expired.
func (s *Session) do(ctx context.Context, method, nsid string, query url.Values, body, out any) error {
	token, err := s.validToken(ctx)
	if err != nil {
		return err
	}

	err = s.client.doXRPC(ctx, method, s.client.PDSURL, nsid, query, body, token, out)
	if err == nil || !IsExpiredToken(err) {
		return err
	}

	if rerr := s.Refresh(ctx); rerr != nil {
		return rerr
	}

	s.mu.RLock()
	token = s.data.AccessJwt
	s.mu.RUnlock()

	return s.client.doXRPC(ctx, method, s.client.PDSURL, nsid, query, body, token, out)
}

// validToken returns the current access token, proactively refreshing it
// when its exp claim says it has already lapsed.
func (s *Session) validToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.data.AccessJwt
	expiresAt := s.expiresAt
	s.mu.RUnlock()

	if expiresAt.IsZero() || time.Now().Before(expiresAt) {
		return token, nil
	}

	if err := s.Refresh(ctx); err != nil {
		return "", err
	}

	s.mu.RLock()
	token = s.data.AccessJwt
	s.mu.RUnlock()
	return token, nil
}

// accessTokenExpiry extracts the exp claim from an access JWT without
// verifying the signature (only the PDS can verify it; the claim is just a
// hint for proactive refresh). A 30 second buffer is subtracted so the token
// is refreshed shortly before actual expiry. Returns the zero time when the
// token cannot be parsed.
func accessTokenExpiry(accessJwt string) time.Time {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessJwt, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time.Add(-30 * time.Second)
}
