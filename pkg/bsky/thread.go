package bsky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
)

const threadViewPostType = "app.bsky.feed.defs#threadViewPost"

// Author is the subset of the profile view attached to each post.
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// PostView is a hydrated post as returned inside a thread.
type PostView struct {
	URI         string     `json:"uri"`
	CID         string     `json:"cid"`
	Author      Author     `json:"author"`
	Record      PostRecord `json:"record"`
	ReplyCount  int        `json:"replyCount"`
	RepostCount int        `json:"repostCount"`
	LikeCount   int        `json:"likeCount"`
	IndexedAt   string     `json:"indexedAt"`
}

// ThreadNode is a post plus its nested replies. It is a read-only snapshot;
// each fetch replaces the whole tree.
type ThreadNode struct {
	Post    PostView
	Replies []*ThreadNode
}

// Ref returns the strong reference of the node's post.
func (n *ThreadNode) Ref() StrongRef {
	return StrongRef{URI: n.Post.URI, CID: n.Post.CID}
}

// GetPostThread retrieves the reply tree below the given post URI, bounded
// by depth. A thread node that is not a viewable post (blocked, deleted)
// yields ErrThreadUnavailable rather than a transport error.
func (s *Session) GetPostThread(ctx context.Context, uri string, depth int) (*ThreadNode, error) {
	query := url.Values{"uri": {uri}}
	if depth > 0 {
		query.Set("depth", strconv.Itoa(depth))
	}

	var resp struct {
		Thread json.RawMessage `json:"thread"`
	}
	if err := s.do(ctx, http.MethodGet, "app.bsky.feed.getPostThread", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("get post thread: %w", err)
	}
	if len(resp.Thread) == 0 {
		return nil, ErrThreadUnavailable
	}

	return decodeThread(resp.Thread)
}

type threadNodeJSON struct {
	Type    string            `json:"$type"`
	Post    PostView          `json:"post"`
	Replies []json.RawMessage `json:"replies"`
}

// decodeThread expands the raw thread tree with an explicit work list so
// that pathologically deep threads cannot exhaust the call stack.
func decodeThread(raw json.RawMessage) (*ThreadNode, error) {
	root := &ThreadNode{}

	type item struct {
		raw  json.RawMessage
		node *ThreadNode
	}
	work := []item{{raw: raw, node: root}}

	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]

		var decoded threadNodeJSON
		if err := json.Unmarshal(cur.raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode thread node: %w", err)
		}
		if decoded.Type != threadViewPostType {
			if cur.node == root {
				return nil, ErrThreadUnavailable
			}
			// Non-viewable child (blocked or not found): skip it.
			cur.node.Post.URI = ""
			continue
		}

		cur.node.Post = decoded.Post
		cur.node.Replies = make([]*ThreadNode, 0, len(decoded.Replies))
		for _, child := range decoded.Replies {
			childNode := &ThreadNode{}
			cur.node.Replies = append(cur.node.Replies, childNode)
			work = append(work, item{raw: child, node: childNode})
		}
	}

	pruneUnavailable(root)
	return root, nil
}

// pruneUnavailable removes children that turned out to be blocked or
// deleted during decoding.
func pruneUnavailable(root *ThreadNode) {
	stack := []*ThreadNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kept := node.Replies[:0]
		for _, child := range node.Replies {
			if child.Post.URI == "" {
				continue
			}
			kept = append(kept, child)
			stack = append(stack, child)
		}
		node.Replies = kept
	}
}

// SortReplies orders every reply list in the thread by descending like
// count. The sort is stable: ties keep their fetched order. Traversal is
// iterative to match the depth guarantees of decodeThread.
func SortReplies(root *ThreadNode) {
	if root == nil {
		return
	}
	stack := []*ThreadNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sort.SliceStable(node.Replies, func(i, j int) bool {
			return node.Replies[i].Post.LikeCount > node.Replies[j].Post.LikeCount
		})
		stack = append(stack, node.Replies...)
	}
}
