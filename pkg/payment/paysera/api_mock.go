package paysera

import (
	"context"
	"fmt"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnQueryPayment func(ctx context.Context, reference string) (*StatusResponse, error)

	// Statuses maps references to status codes returned by default.
	Statuses map[string]string
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{
		Statuses: make(map[string]string),
	}
}

// QueryPayment returns the configured status for a reference, defaulting to
// "accepted, not settled".
func (m *MockAPIClient) QueryPayment(ctx context.Context, reference string) (*StatusResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, fmt.Errorf("paysera: simulated API error")
	}
	if m.OnQueryPayment != nil {
		return m.OnQueryPayment(ctx, reference)
	}

	status, ok := m.Statuses[reference]
	if !ok {
		status = statusAccepted
	}
	return &StatusResponse{
		OrderID: reference,
		Status:  status,
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
