package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// CompletionFunc is the downstream order-completion hook invoked after a
// session is confirmed. It runs asynchronously, never inline with the
// callback response, and at most once per session.
type CompletionFunc func(ctx context.Context, session *PaymentSession)

// CreateSessionRequest asks for a new payment session for a cart.
type CreateSessionRequest struct {
	CartID   string
	OrderID  string
	Amount   int64 // minor units
	Currency string
}

// CreateSessionResult is the checkout-facing answer: where to send the
// shopper, and the session the redirect is bound to.
type CreateSessionResult struct {
	RedirectURL string          `json:"redirect_url"`
	Session     *PaymentSession `json:"session"`
}

// CallbackResult reports how an inbound provider callback was handled.
type CallbackResult struct {
	Session *PaymentSession
	// Applied is true when this callback performed the state transition.
	Applied bool
	// Duplicate is true when the session was already terminal with the
	// same outcome; the callback is re-acknowledged without effect.
	Duplicate bool
	// Ack is the response body the provider transport expects.
	Ack string
}

// Adapter is the payment session adapter. It owns the session state machine
// and correlates provider callbacks with sessions; order-state changes flow
// back through the framework's own workflow via the completion hook.
type Adapter struct {
	provider    Provider
	store       SessionStore
	onConfirmed CompletionFunc
	logger      *otelzap.Logger
}

// NewAdapter creates the payment adapter. onConfirmed may be nil when no
// downstream completion is wired (e.g. in tests).
func NewAdapter(provider Provider, store SessionStore, onConfirmed CompletionFunc, logger *otelzap.Logger) *Adapter {
	return &Adapter{
		provider:    provider,
		store:       store,
		onConfirmed: onConfirmed,
		logger:      logger,
	}
}

// CreateSession stores a Pending session keyed by a locally generated
// reference and returns the signed provider redirect URL embedding it.
func (a *Adapter) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResult, error) {
	if req.CartID == "" {
		return nil, fmt.Errorf("%w: cart id is required", ErrValidationFailed)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidationFailed)
	}
	if req.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrValidationFailed)
	}

	session := &PaymentSession{
		ID:        uuid.New().String(),
		Reference: "ord-" + uuid.New().String(),
		CartID:    req.CartID,
		OrderID:   req.OrderID,
		Provider:  a.provider.Name(),
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    StatusPending,
	}
	if err := a.store.Create(ctx, session); err != nil {
		return nil, err
	}

	redirectURL, err := a.provider.BuildRedirectURL(session)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Payment session created",
		zap.String("reference", session.Reference),
		zap.String("cart_id", session.CartID),
		zap.Int64("amount", session.Amount),
		zap.String("currency", session.Currency),
	)

	return &CreateSessionResult{
		RedirectURL: redirectURL,
		Session:     session,
	}, nil
}

// MarkRedirected records that the shopper was dispatched to the provider:
// Pending → AwaitingCallback. Calling it twice is harmless.
func (a *Adapter) MarkRedirected(ctx context.Context, reference string) error {
	_, _, err := a.store.Transition(ctx, reference, []SessionStatus{StatusPending}, StatusAwaitingCallback)
	return err
}

// HandleCallback verifies and applies an inbound provider callback.
//
// A signature mismatch is rejected with ErrAuthenticationFailed and no state
// change; the provider may retry and a later authentic delivery still works.
// An authentic callback for an already-terminal session is re-acknowledged
// without re-mutating and without re-triggering completion, which makes
// duplicate webhook delivery safe.
func (a *Adapter) HandleCallback(ctx context.Context, payload map[string]string) (*CallbackResult, error) {
	if !a.provider.VerifyCallback(payload) {
		// Security event: forged or corrupted message, not a payment failure.
		a.logger.Warn("Payment callback signature mismatch",
			zap.String("provider", a.provider.Name()),
		)
		return nil, ErrAuthenticationFailed
	}

	callback, err := a.provider.ParseCallback(payload)
	if err != nil {
		return nil, err
	}

	session, err := a.store.FindByReference(ctx, callback.Reference)
	if err != nil {
		return nil, err
	}

	if !callback.Final {
		// Accepted but not settled; keep waiting for the final callback.
		a.logger.Info("Non-final payment callback acknowledged",
			zap.String("reference", callback.Reference),
		)
		return &CallbackResult{Session: session, Ack: callbackAck}, nil
	}

	return a.applyOutcome(ctx, callback)
}

// Reconcile polls the provider's status-query endpoint for a session and
// applies the outcome through the same idempotent transition as a callback.
func (a *Adapter) Reconcile(ctx context.Context, reference string) (*CallbackResult, error) {
	if _, err := a.store.FindByReference(ctx, reference); err != nil {
		return nil, err
	}

	callback, err := a.provider.QueryStatus(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !callback.Final {
		session, err := a.store.FindByReference(ctx, reference)
		if err != nil {
			return nil, err
		}
		return &CallbackResult{Session: session, Ack: callbackAck}, nil
	}
	return a.applyOutcome(ctx, callback)
}

// SweepExpired cancels sessions that have waited for payment longer than
// maxAge. Stale records are timestamped rows, not an in-process cache, so
// the sweep is safe with multiple concurrent instances.
func (a *Adapter) SweepExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	swept, err := a.store.ExpireBefore(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		a.logger.Info("Expired payment sessions swept", zap.Int64("count", swept))
	}
	return swept, nil
}

const callbackAck = "OK"

var nonTerminal = []SessionStatus{StatusPending, StatusAwaitingCallback}

func (a *Adapter) applyOutcome(ctx context.Context, callback *ProviderCallback) (*CallbackResult, error) {
	session, applied, err := a.store.Transition(ctx, callback.Reference, nonTerminal, callback.Status)
	if err != nil {
		return nil, err
	}

	if applied {
		a.logger.Info("Payment session transitioned",
			zap.String("reference", session.Reference),
			zap.String("status", string(session.Status)),
		)
		if session.Status == StatusConfirmed && a.onConfirmed != nil {
			// Downstream completion runs detached from the callback
			// request so the provider gets its acknowledgment quickly.
			completed := *session
			go a.onConfirmed(context.WithoutCancel(ctx), &completed)
		}
		return &CallbackResult{Session: session, Applied: true, Ack: callbackAck}, nil
	}

	if session.Status == callback.Status {
		a.logger.Info("Duplicate payment callback re-acknowledged",
			zap.String("reference", session.Reference),
			zap.String("status", string(session.Status)),
		)
		return &CallbackResult{Session: session, Duplicate: true, Ack: callbackAck}, nil
	}

	// Authentic but logically stale: the session settled with a different
	// outcome. Acknowledge to stop provider-side retries and log the
	// anomaly internally.
	a.logger.Warn("Payment callback outcome conflicts with terminal session",
		zap.String("reference", session.Reference),
		zap.String("recorded_status", string(session.Status)),
		zap.String("callback_status", string(callback.Status)),
	)
	return &CallbackResult{Session: session, Ack: callbackAck}, nil
}
