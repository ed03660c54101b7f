package discussion

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	// tagPrefix marks tags minted by this system.
	tagPrefix = "bluniversal-"

	// tagHexLen is how many hex characters of the digest the tag keeps.
	tagHexLen = 43
)

// Tag derives the deterministic search tag for a normalised page URL:
// the tag prefix followed by the first 43 hex characters of the SHA-256
// digest of the UTF-8 input. No per-run salt is involved; the same input
// yields the same tag across processes and machines.
func Tag(normalizedURL string) string {
	sum := sha256.Sum256([]byte(normalizedURL))
	return tagPrefix + hex.EncodeToString(sum[:])[:tagHexLen]
}
