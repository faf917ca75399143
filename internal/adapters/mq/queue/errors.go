package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed = errors.New("snapshot queue closed")
	ErrFull   = errors.New("snapshot queue full")
)
