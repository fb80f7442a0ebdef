package carrier_test

import (
	"context"
	"testing"

	"github.com/baltmart/storefront/pkg/carrier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := carrier.NewRegistry()
	stub := &stubCarrier{name: "venipak"}

	registry.Register(stub)

	got, err := registry.Get("venipak")
	require.NoError(t, err)
	assert.Equal(t, "venipak", got.Name())
	assert.Equal(t, 1, registry.Count())
	assert.Equal(t, []string{"venipak"}, registry.Names())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := carrier.NewRegistry()

	_, err := registry.Get("ghost")
	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
}

func TestRegistry_GetAllRates(t *testing.T) {
	registry := carrier.NewRegistry()
	registry.Register(&stubCarrier{
		name: "venipak",
		rates: []carrier.ShippingOption{
			{Carrier: "venipak", ServiceCode: "courier", Price: carrier.Money{Amount: decimal.NewFromFloat(4.99), Currency: "EUR"}},
			{Carrier: "venipak", ServiceCode: "pickup_point", Price: carrier.Money{Amount: decimal.NewFromFloat(2.49), Currency: "EUR"}},
		},
	})
	registry.Register(&stubCarrier{
		name:     "flaky",
		ratesErr: carrier.NewCarrierError("flaky", "TIMEOUT", "timed out").WithRetryable(true),
	})

	options, errs := registry.GetAllRates(context.Background(), &carrier.RateRequest{
		Destination: carrier.Address{CountryCode: "LT"},
	})

	assert.Len(t, options, 2)
	assert.Len(t, errs, 1)
}

func TestRegistry_GetAllRates_NoCarriers(t *testing.T) {
	registry := carrier.NewRegistry()

	options, errs := registry.GetAllRates(context.Background(), &carrier.RateRequest{})

	assert.Empty(t, options)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], carrier.ErrCarrierNotFound)
}

func TestIsRetryable(t *testing.T) {
	retryable := carrier.NewCarrierError("venipak", "TIMEOUT", "timed out").WithRetryable(true)
	permanent := carrier.NewCarrierError("venipak", "BAD_ADDRESS", "undeliverable")

	assert.True(t, carrier.IsRetryable(retryable))
	assert.False(t, carrier.IsRetryable(permanent))
	assert.True(t, carrier.IsRetryable(carrier.ErrProviderUnavailable))
	assert.False(t, carrier.IsRetryable(carrier.ErrValidationFailed))
}
