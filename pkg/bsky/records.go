package bsky

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CollectionPost is the NSID of the feed post record collection.
const CollectionPost = "app.bsky.feed.post"

// Facet feature types used by this client.
const (
	FacetTypeLink = "app.bsky.richtext.facet#link"
	FacetTypeTag  = "app.bsky.richtext.facet#tag"
)

// ByteSlice addresses a span of the post text by UTF-8 byte offsets. The API
// requires byte indices, not character indices.
type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// FacetFeature is a single annotation applied to a facet span.
type FacetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

// Facet is a byte-offset-addressed rich-text annotation.
type Facet struct {
	Index    ByteSlice      `json:"index"`
	Features []FacetFeature `json:"features"`
}

// StrongRef identifies a record by URI and content hash.
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// ReplyRef ties a reply to the thread root and its direct parent.
type ReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// PostRecord is the app.bsky.feed.post record body.
type PostRecord struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	Facets    []Facet   `json:"facets,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Reply     *ReplyRef `json:"reply,omitempty"`
	CreatedAt string    `json:"createdAt"`
}

// LinkFacet builds a link facet over the first literal occurrence of target
// in text. Returns nil when the target does not occur.
func LinkFacet(text, target string) *Facet {
	span := byteIndices(text, target)
	if span == nil {
		return nil
	}
	return &Facet{
		Index:    *span,
		Features: []FacetFeature{{Type: FacetTypeLink, URI: target}},
	}
}

// TagFacet builds a hashtag facet over the first literal occurrence of
// "#"+tag in text. Returns nil when the hashtag does not occur.
func TagFacet(text, tag string) *Facet {
	span := byteIndices(text, "#"+tag)
	if span == nil {
		return nil
	}
	return &Facet{
		Index:    *span,
		Features: []FacetFeature{{Type: FacetTypeTag, Tag: tag}},
	}
}

// byteIndices locates the first occurrence of substr in text as byte
// offsets. Go string indexing is already byte-based, which matches the wire
// format the API expects.
func byteIndices(text, substr string) *ByteSlice {
	start := strings.Index(text, substr)
	if start < 0 {
		return nil
	}
	return &ByteSlice{ByteStart: start, ByteEnd: start + len(substr)}
}

type createRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

// CreateRecordResponse is returned by com.atproto.repo.createRecord.
type CreateRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// CreatePost writes a feed post record into the authenticated account's
// repository and returns its strong reference.
func (s *Session) CreatePost(ctx context.Context, record PostRecord) (*CreateRecordResponse, error) {
	if record.Type == "" {
		record.Type = CollectionPost
	}
	if record.CreatedAt == "" {
		record.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	body := createRecordRequest{
		Repo:       s.DID(),
		Collection: CollectionPost,
		Record:     record,
	}

	var resp CreateRecordResponse
	if err := s.do(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil, body, &resp); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &resp, nil
}

// CreateReply posts a reply referencing the thread root and the parent it
// responds to.
func (s *Session) CreateReply(ctx context.Context, text string, root, parent StrongRef) (*CreateRecordResponse, error) {
	record := PostRecord{
		Type:      CollectionPost,
		Text:      text,
		Reply:     &ReplyRef{Root: root, Parent: parent},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return s.CreatePost(ctx, record)
}
