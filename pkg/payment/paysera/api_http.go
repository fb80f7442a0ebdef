package paysera

import (
	"context"
	"net/url"

	"github.com/baltmart/storefront/pkg/gateway"
	"github.com/baltmart/storefront/pkg/signing"
)

// HTTPAPIClient is the production implementation of APIClient over the
// provider's REST API. Transport concerns (signing, timeout, retry) live in
// the shared gateway client.
type HTTPAPIClient struct {
	gw        *gateway.Client
	projectID string
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(gw *gateway.Client, projectID string) *HTTPAPIClient {
	return &HTTPAPIClient{
		gw:        gw,
		projectID: projectID,
	}
}

// QueryPayment fetches payment state from the provider.
// GET /payment/status. The query is signed like any other outbound payload.
func (c *HTTPAPIClient) QueryPayment(ctx context.Context, reference string) (*StatusResponse, error) {
	params := map[string]string{
		"projectid": c.projectID,
		"orderid":   reference,
	}

	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	query.Set(signing.SignatureField, c.gw.Sign(params))

	var resp StatusResponse
	if err := c.gw.Get(ctx, "/payment/status", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
