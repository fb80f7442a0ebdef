// Package gateway provides the shared HTTP transport used by the provider
// adapters: request signing, bounded timeouts, retry with exponential
// backoff, and response decoding.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/baltmart/storefront/pkg/signing"
	"github.com/cenkalti/backoff/v5"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Error is a typed transport error from a provider endpoint.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s gateway error (HTTP %d): %s: %v", e.Provider, e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s gateway error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Config holds gateway client configuration for one provider.
type Config struct {
	Provider   string
	BaseURL    string
	Timeout    time.Duration     // per-attempt timeout, default 10s
	MaxRetries uint              // attempts for retryable operations, default 3
	Headers    map[string]string // static headers, e.g. API key
}

// Client is a low-level HTTP client bound to a single provider.
// Outbound payloads are signed with the provider's codec when one is set.
type Client struct {
	cfg        Config
	httpClient *http.Client
	codec      *signing.Codec
	logger     *otelzap.Logger
}

// New creates a gateway client. codec may be nil for providers that
// authenticate through headers only.
func New(cfg Config, codec *signing.Codec, logger *otelzap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		codec:  codec,
		logger: logger,
	}
}

// Get performs a GET request and decodes the JSON response into out.
// GET is idempotent, so transient failures are retried with backoff.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.doWithRetry(ctx, http.MethodGet, target, "", out)
}

// Post performs a signed form POST and decodes the JSON response into out.
// The request is not retried: without an idempotency key a retry could
// duplicate a provider-side effect.
func (c *Client) Post(ctx context.Context, path string, params map[string]string, out interface{}) error {
	body := c.encodeForm(params)
	return c.do(ctx, http.MethodPost, c.cfg.BaseURL+path, body, out)
}

// PostIdempotent performs a signed form POST with retry. The caller must
// guarantee the params carry a client-generated idempotency key so the
// provider deduplicates repeated deliveries.
func (c *Client) PostIdempotent(ctx context.Context, path string, params map[string]string, out interface{}) error {
	body := c.encodeForm(params)
	return c.doWithRetry(ctx, http.MethodPost, c.cfg.BaseURL+path, body, out)
}

// Sign computes the provider signature for params using the configured codec.
func (c *Client) Sign(params map[string]string) string {
	if c.codec == nil {
		return ""
	}
	return c.codec.Sign(params)
}

func (c *Client) encodeForm(params map[string]string) string {
	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	if c.codec != nil {
		values.Set(signing.SignatureField, c.codec.Sign(params))
	}
	return values.Encode()
}

func (c *Client) doWithRetry(ctx context.Context, method, target, body string, out interface{}) error {
	operation := func() (struct{}, error) {
		err := c.do(ctx, method, target, body, out)
		if err == nil {
			return struct{}{}, nil
		}

		var gwErr *Error
		if errors.As(err, &gwErr) && !gwErr.Retryable {
			return struct{}{}, backoff.Permanent(err)
		}

		c.logger.Warn("Provider request failed, retrying",
			zap.String("provider", c.cfg.Provider),
			zap.String("method", method),
			zap.Error(err),
		)
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.cfg.MaxRetries),
	)
	return err
}

func (c *Client) do(ctx context.Context, method, target, body string, out interface{}) error {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return &Error{Provider: c.cfg.Provider, Message: "building request", Cause: err}
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "baltmart-storefront/1.0")
	for key, value := range c.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network errors and timeouts are transient by definition.
		return &Error{Provider: c.cfg.Provider, Message: "request failed", Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		payload, _ := io.ReadAll(resp.Body)
		return &Error{
			Provider:   c.cfg.Provider,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(payload)),
			Retryable:  true,
		}
	}
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		return &Error{
			Provider:   c.cfg.Provider,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(payload)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{
			Provider:   c.cfg.Provider,
			StatusCode: resp.StatusCode,
			Message:    "decoding response",
			Cause:      err,
		}
	}
	return nil
}
