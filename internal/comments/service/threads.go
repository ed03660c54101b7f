package service

import (
	"context"
	"fmt"

	"github.com/bluniversal/comments/pkg/bsky"
)

// DefaultThreadDepth bounds how many reply levels a thread fetch requests.
const DefaultThreadDepth = 10

// ThreadService fetches discussion threads and posts replies with the
// logged-in session.
type ThreadService struct {
	Manager *Manager

	// Depth overrides DefaultThreadDepth when positive.
	Depth int
}

// Fetch loads the thread rooted at uri with replies sorted by like count at
// every level.
func (t *ThreadService) Fetch(ctx context.Context, uri string) (*bsky.ThreadNode, error) {
	session, err := t.Manager.Session(ctx)
	if err != nil {
		return nil, err
	}

	depth := t.Depth
	if depth <= 0 {
		depth = DefaultThreadDepth
	}

	node, err := session.GetPostThread(ctx, uri, depth)
	if err != nil {
		return nil, fmt.Errorf("fetch thread: %w", err)
	}

	bsky.SortReplies(node)
	return node, nil
}

// Reply posts a reply under the given root and parent and returns its URI.
func (t *ThreadService) Reply(ctx context.Context, text string, root, parent bsky.StrongRef) (string, error) {
	session, err := t.Manager.Session(ctx)
	if err != nil {
		return "", err
	}

	resp, err := session.CreateReply(ctx, text, root, parent)
	if err != nil {
		return "", fmt.Errorf("post reply: %w", err)
	}
	return resp.URI, nil
}
