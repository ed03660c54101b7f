package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bluniversal/comments/internal/comments/store"
	"github.com/bluniversal/comments/pkg/bsky"
	"github.com/bluniversal/comments/pkg/discussion"
)

// ErrPostExists reports that a discussion post for the page already existed
// when creation was attempted. This is the benign outcome of two clients
// racing to create the first post; the caller re-runs the search.
var ErrPostExists = errors.New("comments: post already exists")

// Creator creates the discussion post for a page that has none yet.
// Implementations are mutually exclusive deployment modes selected at
// startup, not runtime alternatives.
type Creator interface {
	CreatePost(ctx context.Context, pageURL, title string) (string, error)
}

// Resolver maps a page to exactly one discussion post URI, creating it when
// absent. Resolution order: local cache, tag search, creation.
type Resolver struct {
	Client  *bsky.Client
	Store   store.Store
	Creator Creator

	// BotAuthor restricts the tag search to posts minted by the bot
	// account (handle or DID).
	BotAuthor string

	Logger *slog.Logger
}

// Resolve returns the discussion post URI for the given page, creating the
// post if no existing one is found. A cache hit makes no network calls.
func (r *Resolver) Resolve(ctx context.Context, rawURL, title string) (string, error) {
	pageKey := discussion.Normalize(rawURL)

	cached, err := r.Store.PostCache().Get(ctx, pageKey)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		r.log().Warn("post cache read failed", "err", err)
	}

	tag := discussion.Tag(pageKey)

	uri, err := r.Client.SearchByTag(ctx, tag, r.BotAuthor)
	if err != nil {
		return "", fmt.Errorf("resolve: %w", err)
	}
	if uri != "" {
		r.cache(ctx, pageKey, uri)
		return uri, nil
	}

	uri, err = r.Creator.CreatePost(ctx, pageKey, title)
	if errors.Is(err, ErrPostExists) {
		// Lost the creation race; the winner's post is findable now.
		uri, err = r.Client.SearchByTag(ctx, tag, r.BotAuthor)
		if err != nil {
			return "", fmt.Errorf("resolve after race: %w", err)
		}
		if uri == "" {
			return "", ErrPostExists
		}
		r.cache(ctx, pageKey, uri)
		return uri, nil
	}
	if err != nil {
		return "", fmt.Errorf("create discussion post: %w", err)
	}

	r.cache(ctx, pageKey, uri)
	return uri, nil
}

func (r *Resolver) cache(ctx context.Context, pageKey, uri string) {
	if err := r.Store.PostCache().Put(ctx, pageKey, uri); err != nil {
		r.log().Warn("post cache write failed", "err", err)
	}
}

func (r *Resolver) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
