package repository

import "errors"

// Sentinel kinds for snapshot errors.
var (
	ErrNotFound        = errors.New("snapshot not found")
	ErrCorruptSnapshot = errors.New("snapshot is corrupt")
	ErrWriteSnapshot   = errors.New("snapshot write failed")
)
