package bsky

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the XRPC endpoints this client exercises.
const (
	ErrorCodeExpiredToken       = "ExpiredToken"
	ErrorCodeInvalidToken       = "InvalidToken"
	ErrorCodeAuthenticationFail = "AuthenticationRequired"
)

// ErrThreadUnavailable reports that the requested thread node is not a
// normal viewable post (blocked or deleted). Callers should present this
// differently from a transport failure.
var ErrThreadUnavailable = errors.New("bsky: thread unavailable")

// ErrNoRefreshToken reports an attempted refresh without a stored refresh
// token.
var ErrNoRefreshToken = errors.New("bsky: no refresh token available")

// APIError is a typed XRPC error response. The AT Protocol reports errors as
// a JSON body of the form {"error": "...", "message": "..."} alongside a
// non-2xx status code.
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`

	// Code is the machine-readable error name (e.g. "ExpiredToken").
	Code string `json:"error"`

	// Message is the human-readable description.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsExpiredToken reports whether err is an XRPC error caused by an expired
// or otherwise invalid access token, i.e. one that a session refresh could
// recover from.
func IsExpiredToken(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case ErrorCodeExpiredToken, ErrorCodeInvalidToken:
		return true
	}
	return apiErr.StatusCode == http.StatusUnauthorized
}

// parseAPIError converts a non-2xx XRPC response body into a typed error.
func parseAPIError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}
	return apiErr
}
