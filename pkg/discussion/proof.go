package discussion

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignRequest computes the hex HMAC-SHA256 proof over url|title|timestamp
// keyed by the shared secret. The timestamp is unix seconds. Both the client
// requesting a post and the endpoint verifying the request use this.
func SignRequest(secret, pageURL, title string, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s|%d", pageURL, title, timestamp)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRequest reports whether proof matches the expected signature for the
// given fields. Comparison is constant-time.
func VerifyRequest(secret, pageURL, title string, timestamp int64, proof string) bool {
	expected := SignRequest(secret, pageURL, title, timestamp)
	return hmac.Equal([]byte(expected), []byte(proof))
}
