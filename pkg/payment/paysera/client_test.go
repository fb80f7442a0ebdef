package paysera_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/baltmart/storefront/pkg/payment"
	"github.com/baltmart/storefront/pkg/payment/paysera"
	"github.com/baltmart/storefront/pkg/signing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, codec *signing.Codec) (*paysera.Client, *paysera.MockAPIClient) {
	t.Helper()
	mockAPI := paysera.NewMockAPIClient()
	client := paysera.NewWithAPIClient(paysera.Config{
		ProjectID:   "12345",
		PayURL:      "https://pay.example.com/pay",
		AcceptURL:   "https://shop.example.com/checkout/accept",
		CancelURL:   "https://shop.example.com/checkout/cancel",
		CallbackURL: "https://shop.example.com/payment/callback",
		TestMode:    true,
	}, codec, mockAPI, otelzap.New(zap.NewNop()))
	return client, mockAPI
}

func TestClient_BuildRedirectURL(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, _ := newTestClient(t, codec)

	session := &payment.PaymentSession{
		Reference: "ord-abc123",
		Amount:    1000,
		Currency:  "EUR",
	}

	redirect, err := client.BuildRedirectURL(session)
	require.NoError(t, err)

	parsed, err := url.Parse(redirect)
	require.NoError(t, err)
	query := parsed.Query()

	assert.Equal(t, "ord-abc123", query.Get("orderid"))
	assert.Equal(t, "1000", query.Get("amount"))
	assert.Equal(t, "EUR", query.Get("currency"))
	assert.Equal(t, "12345", query.Get("projectid"))
	assert.Equal(t, "1", query.Get("test"))

	// The embedded signature must verify over the remaining params.
	payload := make(map[string]string)
	for key := range query {
		if key != signing.SignatureField {
			payload[key] = query.Get(key)
		}
	}
	assert.True(t, codec.Verify(payload, query.Get(signing.SignatureField)))
}

func TestClient_BuildRedirectURL_MissingProject(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client := paysera.NewWithAPIClient(paysera.Config{}, codec, paysera.NewMockAPIClient(), otelzap.New(zap.NewNop()))

	_, err := client.BuildRedirectURL(&payment.PaymentSession{Reference: "ord-1"})
	assert.Error(t, err)
}

func TestClient_VerifyCallback(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, _ := newTestClient(t, codec)

	payload := map[string]string{
		"orderid": "ord-abc123",
		"status":  "1",
	}
	payload[signing.SignatureField] = codec.Sign(payload)

	assert.True(t, client.VerifyCallback(payload))

	payload["status"] = "0"
	assert.False(t, client.VerifyCallback(payload))
}

func TestClient_ParseCallback_Paid(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, _ := newTestClient(t, codec)

	callback, err := client.ParseCallback(map[string]string{
		"orderid": "ord-abc123",
		"status":  "1",
	})

	require.NoError(t, err)
	assert.Equal(t, "ord-abc123", callback.Reference)
	assert.Equal(t, payment.StatusConfirmed, callback.Status)
	assert.True(t, callback.Final)
}

func TestClient_ParseCallback_Outcomes(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, _ := newTestClient(t, codec)

	tests := []struct {
		status string
		want   payment.SessionStatus
		final  bool
	}{
		{"1", payment.StatusConfirmed, true},
		{"0", payment.StatusFailed, true},
		{"3", payment.StatusCancelled, true},
		{"2", "", false},
	}

	for _, tt := range tests {
		callback, err := client.ParseCallback(map[string]string{
			"orderid": "ord-1",
			"status":  tt.status,
		})
		require.NoError(t, err, "status %s", tt.status)
		assert.Equal(t, tt.final, callback.Final, "status %s", tt.status)
		if tt.final {
			assert.Equal(t, tt.want, callback.Status, "status %s", tt.status)
		}
	}
}

func TestClient_ParseCallback_UnknownStatus(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, _ := newTestClient(t, codec)

	_, err := client.ParseCallback(map[string]string{
		"orderid": "ord-1",
		"status":  "99",
	})
	assert.ErrorIs(t, err, payment.ErrValidationFailed)
}

func TestClient_ParseCallback_UnrecognizedShape(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, _ := newTestClient(t, codec)

	_, err := client.ParseCallback(map[string]string{
		"some_field": "value",
	})
	assert.ErrorIs(t, err, payment.ErrValidationFailed)
}

func TestClient_ParseCallback_TestPing(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, _ := newTestClient(t, codec)

	_, err := client.ParseCallback(map[string]string{"type": "ping"})
	assert.ErrorIs(t, err, payment.ErrValidationFailed)
}

func TestClient_QueryStatus(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, mockAPI := newTestClient(t, codec)
	mockAPI.Statuses["ord-abc123"] = "1"

	callback, err := client.QueryStatus(context.Background(), "ord-abc123")

	require.NoError(t, err)
	assert.Equal(t, payment.StatusConfirmed, callback.Status)
	assert.True(t, callback.Final)
}

func TestClient_QueryStatus_ProviderDown(t *testing.T) {
	codec := signing.NewCodec("sign-password")
	client, mockAPI := newTestClient(t, codec)
	mockAPI.SimulateErrors = true

	_, err := client.QueryStatus(context.Background(), "ord-abc123")
	assert.ErrorIs(t, err, payment.ErrProviderUnavailable)
}
