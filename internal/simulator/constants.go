package simulator

import "time"

// HTTP status code constants.
const (
	StatusOK        = 200
	StatusCreated   = 201
	StatusNoContent = 204
)

// Script constants.
const (
	ExtraTimeMinutes = 2
	DefaultStep      = 200 * time.Millisecond
)
