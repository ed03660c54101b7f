// Package service implements the client-side flows: session lifecycle
// management and discussion post resolution.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bluniversal/comments/internal/comments/domain"
	"github.com/bluniversal/comments/internal/comments/store"
	"github.com/bluniversal/comments/pkg/bsky"
)

// Manager owns the lifecycle of the authenticated session: it resumes the
// persisted session, logs in, refreshes, validates and logs out. All other
// components obtain their authenticated client through it instead of
// touching storage directly.
type Manager struct {
	Client *bsky.Client
	Store  store.Store
	Logger *slog.Logger

	mu      sync.Mutex
	session *bsky.Session
}

// Initialize loads the persisted session fields and resumes a client
// session from them. It reports whether a session was resumed; empty
// storage is not an error.
func (m *Manager) Initialize(ctx context.Context) (bool, error) {
	data, err := m.Store.Sessions().Get(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if !data.Complete() {
		return false, nil
	}

	m.mu.Lock()
	m.session = m.resume(data)
	m.mu.Unlock()
	return true, nil
}

// Session returns a usable authenticated session, initializing from storage
// if needed. Returns domain.ErrNotLoggedIn when no session is stored.
func (m *Manager) Session(ctx context.Context) (*bsky.Session, error) {
	m.mu.Lock()
	if m.session != nil {
		s := m.session
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	resumed, err := m.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	if !resumed {
		return nil, domain.ErrNotLoggedIn
	}

	m.mu.Lock()
	s := m.session
	m.mu.Unlock()
	return s, nil
}

// Login exchanges credentials against the PDS and persists the returned
// session fields.
func (m *Manager) Login(ctx context.Context, identifier, password string) error {
	session, err := m.Client.CreateSession(ctx, identifier, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	data := session.Data()
	if err := m.Store.Sessions().Put(ctx, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	session.OnRefresh = m.persistRefreshed

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
	return nil
}

// Refresh rotates the token pair using the stored refresh token and
// persists the new fields. A refresh token the PDS no longer accepts is
// terminal: stored state is cleared and domain.ErrSessionExpired returned so
// the caller prompts for a fresh login.
func (m *Manager) Refresh(ctx context.Context) error {
	session, err := m.Session(ctx)
	if err != nil {
		return err
	}
	if err := session.Refresh(ctx); err != nil {
		if bsky.IsExpiredToken(err) {
			if cerr := m.Expire(ctx); cerr != nil {
				m.log().Warn("clear expired session failed", "err", cerr)
			}
			return domain.ErrSessionExpired
		}
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// Validate checks a session against the PDS, attempting one refresh when
// the access token has expired. It reports validity as a boolean and never
// propagates errors.
func (m *Manager) Validate(ctx context.Context, session *bsky.Session) bool {
	err := session.GetSession(ctx)
	if err == nil {
		return true
	}
	if !bsky.IsExpiredToken(err) {
		m.log().Debug("session validation failed", "err", err)
		return false
	}

	if err := session.Refresh(ctx); err != nil {
		m.log().Debug("session refresh during validation failed", "err", err)
		if bsky.IsExpiredToken(err) {
			if cerr := m.Expire(ctx); cerr != nil {
				m.log().Warn("clear expired session failed", "err", cerr)
			}
		}
		return false
	}
	return true
}

// IsLoggedIn loads the persisted session and validates it. Any internal
// failure yields false, never an error.
func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	session, err := m.Session(ctx)
	if err != nil {
		return false
	}
	return m.Validate(ctx, session)
}

// Logout invalidates the remote session best-effort and clears all
// persisted fields.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	session := m.session
	m.session = nil
	m.mu.Unlock()

	if session != nil {
		if err := session.Delete(ctx); err != nil {
			m.log().Warn("remote session delete failed", "err", err)
		}
	}

	return m.Store.Sessions().Clear(ctx)
}

// Expire clears all persisted session state after a terminal refresh
// failure, forcing re-login.
func (m *Manager) Expire(ctx context.Context) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return m.Store.Sessions().Clear(ctx)
}

// resume builds an in-memory session from persisted fields and hooks token
// rotation back into storage.
func (m *Manager) resume(data bsky.SessionData) *bsky.Session {
	session := m.Client.ResumeSession(data)
	session.OnRefresh = m.persistRefreshed
	return session
}

// persistRefreshed writes rotated tokens back to storage. Persisting is
// best-effort; the in-memory session already carries the new pair.
func (m *Manager) persistRefreshed(data bsky.SessionData) {
	if err := m.Store.Sessions().Put(context.Background(), data); err != nil {
		m.log().Warn("persist refreshed session failed", "err", err)
	}
}

func (m *Manager) log() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
