// Package payment provides the payment session adapter between the commerce
// framework and external payment providers.
package payment

import (
	"context"
	"time"
)

// SessionStatus represents the state of a payment session.
type SessionStatus string

const (
	StatusPending          SessionStatus = "pending"
	StatusAwaitingCallback SessionStatus = "awaiting_callback"
	StatusConfirmed        SessionStatus = "confirmed"
	StatusCancelled        SessionStatus = "cancelled"
	StatusFailed           SessionStatus = "failed"
)

// Terminal reports whether no further transition may leave s.
func (s SessionStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled || s == StatusFailed
}

// PaymentSession is the persisted record correlating a checkout with the
// provider-side payment. It is owned by the checkout flow that created it
// and becomes immutable once terminal.
type PaymentSession struct {
	ID        string        `json:"session_id" gorm:"primaryKey;column:id"`
	Reference string        `json:"reference" gorm:"column:reference;uniqueIndex"`
	CartID    string        `json:"cart_id" gorm:"column:cart_id;index"`
	OrderID   string        `json:"order_id,omitempty" gorm:"column:order_id"`
	Provider  string        `json:"provider" gorm:"column:provider"`
	Amount    int64         `json:"amount" gorm:"column:amount"` // minor units
	Currency  string        `json:"currency" gorm:"column:currency"`
	Status    SessionStatus `json:"status" gorm:"column:status"`
	CreatedAt time.Time     `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"column:updated_at"`
}

// ProviderCallback is the normalized form of an authentic provider message.
// It doesn't matter which provider sent it; the adapter always sees this.
type ProviderCallback struct {
	Reference string
	// Status is the session status the message maps to. Only meaningful
	// when Final is true.
	Status SessionStatus
	// Final reports whether the message carries a settlement outcome.
	// Non-final messages (e.g. "accepted, awaiting settlement") are
	// acknowledged without a state transition.
	Final bool
	Raw   map[string]string
}

// Provider defines the interface a payment provider integration must
// implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "paysera").
	Name() string

	// BuildRedirectURL returns the provider redirect URL for a session,
	// embedding the session reference and the payload signature.
	BuildRedirectURL(session *PaymentSession) (string, error)

	// VerifyCallback checks the authenticity of a raw callback payload.
	VerifyCallback(payload map[string]string) bool

	// ParseCallback normalizes an authentic callback payload. Payloads that
	// match no known provider message shape fail with ErrValidationFailed
	// rather than being interpreted loosely.
	ParseCallback(payload map[string]string) (*ProviderCallback, error)

	// QueryStatus asks the provider for the current payment state of a
	// session reference, for reconciliation polling.
	QueryStatus(ctx context.Context, reference string) (*ProviderCallback, error)
}
