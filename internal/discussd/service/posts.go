// Package service implements the post-creation endpoint's business logic:
// request authorization and discussion post minting.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bluniversal/comments/pkg/bsky"
	"github.com/bluniversal/comments/pkg/discussion"
)

var (
	ErrInvalidPayload = errors.New("discussd: invalid payload")
	ErrStaleTimestamp = errors.New("discussd: timestamp outside accepted window")
	ErrBadSignature   = errors.New("discussd: signature mismatch")
	ErrInvalidSession = errors.New("discussd: session rejected by PDS")
	ErrAlreadyExists  = errors.New("discussd: post already exists")
)

// Mode selects how create requests prove their authenticity. The two modes
// are mutually exclusive deployment choices.
type Mode string

const (
	// ModeHMAC accepts requests carrying a timestamped HMAC proof and mints
	// posts with the configured bot account.
	ModeHMAC Mode = "hmac"

	// ModeSession accepts requests carrying the caller's full session and
	// mints posts as that user after validating the session against the PDS.
	ModeSession Mode = "session"
)

// CreateRequest is a decoded post-creation request. Timestamp and Hash are
// set in hmac mode; Session is set in session mode.
type CreateRequest struct {
	URL       string
	Title     string
	Timestamp int64
	Hash      string
	Session   bsky.SessionData
}

// PostService authorizes create requests and mints the discussion post for a
// page, rejecting duplicates found by tag search.
type PostService struct {
	Client *bsky.Client
	Mode   Mode

	// SharedSecret signs the url|title|timestamp proof in hmac mode.
	SharedSecret string

	// ProofWindow bounds how far a request timestamp may drift from server
	// time in hmac mode.
	ProofWindow time.Duration

	// Bot credentials, used to mint posts in hmac mode.
	BotIdentifier string
	BotPassword   string

	Logger *slog.Logger

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time

	mu  sync.Mutex
	bot *bsky.Session
}

// Create authorizes the request per the configured mode and mints the
// discussion post, returning its AT URI. A post already findable by tag
// search yields ErrAlreadyExists instead of a duplicate.
func (s *PostService) Create(ctx context.Context, req CreateRequest) (string, error) {
	if req.URL == "" || req.Title == "" {
		return "", ErrInvalidPayload
	}

	session, err := s.authorize(ctx, req)
	if err != nil {
		return "", err
	}

	pageKey := discussion.Normalize(req.URL)
	tag := discussion.Tag(pageKey)

	existing, err := s.Client.SearchByTag(ctx, tag, s.searchAuthor())
	if err != nil {
		return "", fmt.Errorf("duplicate check: %w", err)
	}
	if existing != "" {
		return "", ErrAlreadyExists
	}

	record := discussion.BuildRecord(pageKey, req.Title, s.now())
	resp, err := session.CreatePost(ctx, record)
	if err != nil && s.Mode == ModeHMAC && bsky.IsExpiredToken(err) {
		// The cached bot session died beyond refresh; log in fresh once.
		s.dropBot()
		session, err = s.botSession(ctx)
		if err != nil {
			return "", err
		}
		resp, err = session.CreatePost(ctx, record)
	}
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}

	s.log().Info("discussion post created", "uri", resp.URI, "tag", tag)
	return resp.URI, nil
}

// authorize validates the request proof and returns the session to mint
// with. The staleness check runs before the signature check so expired
// requests are rejected even when correctly signed.
func (s *PostService) authorize(ctx context.Context, req CreateRequest) (*bsky.Session, error) {
	switch s.Mode {
	case ModeHMAC:
		if req.Hash == "" {
			return nil, ErrInvalidPayload
		}
		drift := s.now().Unix() - req.Timestamp
		if drift < 0 {
			drift = -drift
		}
		// Compare in whole seconds; converting drift to a Duration would
		// overflow for timestamps far out of range.
		if drift > int64(s.ProofWindow/time.Second) {
			return nil, ErrStaleTimestamp
		}
		if !discussion.VerifyRequest(s.SharedSecret, req.URL, req.Title, req.Timestamp, req.Hash) {
			return nil, ErrBadSignature
		}
		return s.botSession(ctx)

	case ModeSession:
		if !req.Session.Complete() {
			return nil, ErrInvalidPayload
		}
		session := s.Client.ResumeSession(req.Session)
		if err := session.GetSession(ctx); err != nil {
			if !bsky.IsExpiredToken(err) {
				return nil, ErrInvalidSession
			}
			if err := session.Refresh(ctx); err != nil {
				return nil, ErrInvalidSession
			}
		}
		return session, nil

	default:
		return nil, fmt.Errorf("unknown mode %q", s.Mode)
	}
}

// botSession returns the cached bot session, logging in on first use.
func (s *PostService) botSession(ctx context.Context) (*bsky.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bot != nil {
		return s.bot, nil
	}

	session, err := s.Client.CreateSession(ctx, s.BotIdentifier, s.BotPassword)
	if err != nil {
		return nil, fmt.Errorf("bot login: %w", err)
	}
	s.bot = session
	return session, nil
}

func (s *PostService) dropBot() {
	s.mu.Lock()
	s.bot = nil
	s.mu.Unlock()
}

// searchAuthor restricts the duplicate search to the bot account in hmac
// mode. In session mode any user may have minted the post, so no filter.
func (s *PostService) searchAuthor() string {
	if s.Mode == ModeHMAC {
		return s.BotIdentifier
	}
	return ""
}

func (s *PostService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PostService) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
