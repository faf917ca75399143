package live

import "errors"

// Sentinel errors for the live feed.
var (
	ErrClosed  = errors.New("live hub closed")
	ErrUpgrade = errors.New("websocket upgrade failed")
)
