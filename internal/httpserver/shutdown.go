package httpserver

import "time"

// ShutdownTimeout bounds a graceful stop: in-flight requests, the blob
// janitor's queue, and the final trace flush share this window.
var ShutdownTimeout = 15 * time.Second
