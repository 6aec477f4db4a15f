package repositories

import "errors"

// Sentinel errors shared by the Postgres stores. Handlers translate them into
// the domain-specific 404 and 409 messages.
var (
	// ErrNotFound reports a missing user, video, tweet, comment, like,
	// subscription or playlist row.
	ErrNotFound = errors.New("repositories: row not found")
	// ErrConflict reports a unique violation such as a taken username or a
	// video already present in a playlist.
	ErrConflict = errors.New("repositories: unique constraint violated")
)
