package paysera

import (
	"context"
)

// APIClient defines the interface for the provider's status-query API.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// QueryPayment fetches the provider-side state of a payment by the
	// local session reference.
	QueryPayment(ctx context.Context, reference string) (*StatusResponse, error)
}

// ============================================================================
// API Request/Response Types
// ============================================================================

// StatusResponse is the provider's answer to a status query.
type StatusResponse struct {
	OrderID  string `json:"orderid"`
	Status   string `json:"status"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	PaidAt   string `json:"paid_at,omitempty"`
}

// Provider status codes carried in callbacks and status queries.
const (
	statusFailed    = "0" // payment not executed
	statusPaid      = "1" // payment successful
	statusAccepted  = "2" // accepted, settlement pending; not final
	statusCancelled = "3" // cancelled by the payer
)
