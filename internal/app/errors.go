package service

import "errors"

// Sentinel errors for service operations. Rule violations come from the model package.
var (
	ErrIncorrectPassword = errors.New("Incorrect password") //nolint:staticcheck // shown to the admin verbatim
	ErrInvalidToken      = errors.New("invalid or expired session")
	ErrRequestInFlight   = errors.New("a request with this idempotency key is still being processed")
	ErrStopped           = errors.New("service stopped")
	ErrAuthSetup         = errors.New("admin authentication is not configured")
)
