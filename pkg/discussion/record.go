package discussion

import (
	"fmt"
	"time"

	"github.com/bluniversal/comments/pkg/bsky"
)

// Hashtag is the fixed hashtag embedded in every discussion post.
const Hashtag = "BlueskyComments"

// BuildRecord assembles the discussion post for a page: human-readable text
// embedding the title and URL, a link facet over the URL, a tag facet over
// the hashtag, and the derived lookup tag. Facet spans are UTF-8 byte
// offsets over the first literal occurrence of each substring; if the title
// itself contains the URL or hashtag text, the earlier occurrence wins.
func BuildRecord(pageURL, title string, now time.Time) bsky.PostRecord {
	text := fmt.Sprintf("Discussing \"%s\"\n%s\n\n#%s", title, pageURL, Hashtag)

	var facets []bsky.Facet
	if f := bsky.LinkFacet(text, pageURL); f != nil {
		facets = append(facets, *f)
	}
	if f := bsky.TagFacet(text, Hashtag); f != nil {
		facets = append(facets, *f)
	}

	return bsky.PostRecord{
		Type:      bsky.CollectionPost,
		Text:      text,
		Facets:    facets,
		Tags:      []string{Tag(pageURL)},
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}
