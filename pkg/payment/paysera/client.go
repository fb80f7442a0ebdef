// Package paysera provides integration with a Paysera-style payment gateway:
// signed redirect out, signed webhook callback in.
package paysera

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/baltmart/storefront/pkg/gateway"
	"github.com/baltmart/storefront/pkg/payment"
	"github.com/baltmart/storefront/pkg/signing"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const providerName = "paysera"

const protocolVersion = "1.6"

// Config holds payment provider configuration.
type Config struct {
	ProjectID   string
	PayURL      string // shopper-facing redirect base
	APIBaseURL  string // status-query API base
	AcceptURL   string
	CancelURL   string
	CallbackURL string
	TestMode    bool
	UseMock     bool // When true, uses mock API client
}

// Client is the payment provider client. It implements the payment.Provider
// interface and delegates status queries to the underlying APIClient
// (mock or HTTP).
type Client struct {
	config    Config
	codec     *signing.Codec
	apiClient APIClient
	logger    *otelzap.Logger
}

// New creates a new provider client. The codec carries the project's
// sign password; it is used for both outbound signing and callback
// verification.
func New(cfg Config, codec *signing.Codec, logger *otelzap.Logger) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		gw := gateway.New(gateway.Config{
			Provider: providerName,
			BaseURL:  cfg.APIBaseURL,
			Timeout:  10 * time.Second,
		}, codec, logger)
		apiClient = NewHTTPAPIClient(gw, cfg.ProjectID)
	}

	return &Client{
		config:    cfg,
		codec:     codec,
		apiClient: apiClient,
		logger:    logger,
	}
}

// NewWithAPIClient creates a new provider client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, codec *signing.Codec, apiClient APIClient, logger *otelzap.Logger) *Client {
	return &Client{
		config:    cfg,
		codec:     codec,
		apiClient: apiClient,
		logger:    logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// BuildRedirectURL builds the signed provider redirect URL for a session.
// The session reference travels as orderid and comes back unchanged in the
// callback, correlating the two.
func (c *Client) BuildRedirectURL(session *payment.PaymentSession) (string, error) {
	if c.config.ProjectID == "" {
		return "", fmt.Errorf("paysera: project id is not configured")
	}

	params := map[string]string{
		"projectid":   c.config.ProjectID,
		"orderid":     session.Reference,
		"amount":      strconv.FormatInt(session.Amount, 10),
		"currency":    session.Currency,
		"accepturl":   c.config.AcceptURL,
		"cancelurl":   c.config.CancelURL,
		"callbackurl": c.config.CallbackURL,
		"version":     protocolVersion,
		"test":        testFlag(c.config.TestMode),
	}

	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	values.Set(signing.SignatureField, c.codec.Sign(params))

	return c.config.PayURL + "?" + values.Encode(), nil
}

// VerifyCallback checks the signature of a raw callback payload.
func (c *Client) VerifyCallback(payload map[string]string) bool {
	return c.codec.Verify(payload, payload[signing.SignatureField])
}

// ParseCallback normalizes an authentic callback payload. Provider messages
// are matched against the known shapes; anything else is rejected loudly
// instead of being interpreted through loose field access.
func (c *Client) ParseCallback(payload map[string]string) (*payment.ProviderCallback, error) {
	switch classifyMessage(payload) {
	case msgPayment:
		return normalizePayment(payload["orderid"], payload["status"], payload)
	case msgTestPing:
		// Connectivity probe from the provider console; no session attached.
		return nil, fmt.Errorf("%w: test ping carries no payment outcome", payment.ErrValidationFailed)
	default:
		c.logger.Warn("Unrecognized provider message shape",
			zap.Strings("fields", fieldNames(payload)),
		)
		return nil, fmt.Errorf("%w: unrecognized provider message shape", payment.ErrValidationFailed)
	}
}

// QueryStatus asks the provider's status endpoint for the payment state of
// a session reference.
func (c *Client) QueryStatus(ctx context.Context, reference string) (*payment.ProviderCallback, error) {
	resp, err := c.apiClient.QueryPayment(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrProviderUnavailable, err)
	}
	return normalizePayment(resp.OrderID, resp.Status, map[string]string{
		"orderid":  resp.OrderID,
		"status":   resp.Status,
		"amount":   resp.Amount,
		"currency": resp.Currency,
	})
}

// ============================================================================
// Message classification
// ============================================================================

// messageKind is a closed set of known provider message shapes.
type messageKind int

const (
	msgUnrecognized messageKind = iota
	msgPayment
	msgTestPing
)

func classifyMessage(payload map[string]string) messageKind {
	if payload["orderid"] != "" && payload["status"] != "" {
		return msgPayment
	}
	if payload["type"] == "ping" {
		return msgTestPing
	}
	return msgUnrecognized
}

func normalizePayment(reference, status string, raw map[string]string) (*payment.ProviderCallback, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: missing order reference", payment.ErrValidationFailed)
	}

	callback := &payment.ProviderCallback{
		Reference: reference,
		Raw:       raw,
	}

	switch status {
	case statusPaid:
		callback.Status = payment.StatusConfirmed
		callback.Final = true
	case statusFailed:
		callback.Status = payment.StatusFailed
		callback.Final = true
	case statusCancelled:
		callback.Status = payment.StatusCancelled
		callback.Final = true
	case statusAccepted:
		// Settlement pending; the final callback follows later.
	default:
		return nil, fmt.Errorf("%w: unknown provider status %q", payment.ErrValidationFailed, status)
	}
	return callback, nil
}

func testFlag(enabled bool) string {
	if enabled {
		return "1"
	}
	return "0"
}

func fieldNames(payload map[string]string) []string {
	names := make([]string, 0, len(payload))
	for name := range payload {
		names = append(names, name)
	}
	return names
}

// Ensure Client implements payment.Provider interface
var _ payment.Provider = (*Client)(nil)
