package media

import "errors"

var (
	// ErrStoreUnavailable indicates the blob store is not configured.
	ErrStoreUnavailable = errors.New("media: blob store unavailable")
	// ErrJanitorClosed is returned when cleanup is scheduled after shutdown.
	ErrJanitorClosed = errors.New("media: janitor closed")
)
