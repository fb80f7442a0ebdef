package carrier

import (
	"errors"
	"fmt"
)

// CarrierError represents an error from a logistics carrier.
type CarrierError struct {
	Carrier    string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *CarrierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CarrierError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for CarrierError.
func (e *CarrierError) Is(target error) bool {
	t, ok := target.(*CarrierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewCarrierError creates a new CarrierError.
func NewCarrierError(carrier, code, message string) *CarrierError {
	return &CarrierError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *CarrierError) WithCause(err error) *CarrierError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *CarrierError) WithStatusCode(code int) *CarrierError {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *CarrierError) WithRetryable(retryable bool) *CarrierError {
	e.Retryable = retryable
	return e
}

// Sentinel errors for fulfillment scenarios.
var (
	// ErrShipmentNotFound indicates the tracking number or shipment ID is unknown.
	ErrShipmentNotFound = errors.New("shipment not found")

	// ErrFulfillmentRejected indicates a carrier-side business rejection
	// (bad address, unsupported destination). Never retried.
	ErrFulfillmentRejected = errors.New("fulfillment rejected")

	// ErrProviderUnavailable indicates a transient carrier failure.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrValidationFailed indicates a malformed or incomplete request.
	ErrValidationFailed = errors.New("validation failed")

	// ErrAuthenticationFailed indicates a webhook signature mismatch.
	// Security-relevant, never treated as a carrier status.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")
)

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var carrierErr *CarrierError
	if errors.As(err, &carrierErr) {
		return carrierErr.Retryable
	}
	return errors.Is(err, ErrProviderUnavailable)
}
