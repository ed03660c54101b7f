// Package domain holds the client-side sentinel errors surfaced to the UI
// and the storage keys for install metadata.
package domain

import "errors"

var (
	// ErrNotLoggedIn reports that no persisted session exists.
	ErrNotLoggedIn = errors.New("comments: not logged in")

	// ErrSessionExpired reports that the session could not be refreshed and
	// the user must authenticate again.
	ErrSessionExpired = errors.New("comments: session expired")
)

// Storage keys for install metadata.
const (
	MetaKeyInstalledAt    = "installed_at"
	MetaKeyPromoDismissed = "promo_dismissed"
)
