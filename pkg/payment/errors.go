package payment

import (
	"errors"
)

// Sentinel errors for payment scenarios.
var (
	// ErrAuthenticationFailed indicates a callback signature mismatch.
	// Security-relevant: a forged or corrupted message, never a genuine
	// decline. Not retried, no state change.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrValidationFailed indicates a malformed or incomplete payload.
	ErrValidationFailed = errors.New("validation failed")

	// ErrSessionNotFound indicates the callback reference matches no
	// known payment session.
	ErrSessionNotFound = errors.New("payment session not found")

	// ErrProviderUnavailable indicates a transient provider failure.
	ErrProviderUnavailable = errors.New("provider unavailable")
)
