// Package discussion holds the page-to-post mapping shared by every surface:
// URL canonicalisation, deterministic tag derivation and the discussion post
// payload. Both the client and the post-creation endpoint must agree on
// these byte-for-byte, so they live in one place.
package discussion

import (
	"net/url"
	"strings"
)

// trackingParams are the query parameters stripped during normalisation.
var trackingParams = []string{
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_term",
	"utm_content",
}

// Normalize canonicalises a page URL so that the same logical page maps to
// the same key across visits: the "www." host prefix, the fragment, known
// tracking parameters and trailing path slashes are removed and the result
// is lower-cased. Normalize never fails; unparseable input falls back to the
// lower-cased raw string. The function is idempotent.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToLower(raw)
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")

	query := u.Query()
	for _, param := range trackingParams {
		query.Del(param)
	}

	// A root page normalizes to the bare host, no trailing slash.
	path := strings.TrimRight(u.EscapedPath(), "/")

	normalized := u.Scheme + "://" + host + path
	if encoded := query.Encode(); encoded != "" {
		normalized += "?" + encoded
	}
	return strings.ToLower(normalized)
}
