package venipak_test

import (
	"context"
	"testing"

	"github.com/baltmart/storefront/pkg/carrier"
	"github.com/baltmart/storefront/pkg/carrier/venipak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*venipak.Client, *venipak.MockAPIClient) {
	t.Helper()
	mockAPI := venipak.NewMockAPIClient()
	client := venipak.NewWithAPIClient(venipak.Config{
		DefaultCurrency: "EUR",
		TestMode:        true,
	}, mockAPI, otelzap.New(zap.NewNop()), noop.NewTracerProvider().Tracer("test"))
	return client, mockAPI
}

func TestClient_Name(t *testing.T) {
	client, _ := newTestClient(t)
	assert.Equal(t, "venipak", client.Name())
}

func TestClient_ListPickupPoints(t *testing.T) {
	client, _ := newTestClient(t)

	points, err := client.ListPickupPoints(context.Background(), &carrier.PickupPointQuery{
		CountryCode: "LT",
	})

	require.NoError(t, err)
	require.NotEmpty(t, points)
	assert.Equal(t, "LT", points[0].CountryCode)
}

func TestClient_ListPickupPoints_CityFilter(t *testing.T) {
	client, _ := newTestClient(t)

	points, err := client.ListPickupPoints(context.Background(), &carrier.PickupPointQuery{
		CountryCode: "LT",
		City:        "Kaunas",
	})

	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "Kaunas", points[0].City)
	assert.Equal(t, carrier.PickupPointLocker, points[0].Type)
}

func TestClient_ListPickupPoints_TypeFilter(t *testing.T) {
	client, _ := newTestClient(t)

	points, err := client.ListPickupPoints(context.Background(), &carrier.PickupPointQuery{
		CountryCode: "LT",
		Type:        carrier.PickupPointTerminal,
	})

	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, carrier.PickupPointTerminal, points[0].Type)
}

func TestClient_ListPickupPoints_UnsupportedCountry(t *testing.T) {
	client, _ := newTestClient(t)

	points, err := client.ListPickupPoints(context.Background(), &carrier.PickupPointQuery{
		CountryCode: "DE",
	})

	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestClient_ListPickupPoints_APIError(t *testing.T) {
	client, mockAPI := newTestClient(t)
	mockAPI.SimulateErrors = true

	_, err := client.ListPickupPoints(context.Background(), &carrier.PickupPointQuery{
		CountryCode: "LT",
	})

	require.Error(t, err)
	assert.True(t, carrier.IsRetryable(err))
}

func TestClient_GetRates(t *testing.T) {
	client, _ := newTestClient(t)

	options, err := client.GetRates(context.Background(), &carrier.RateRequest{
		Destination: carrier.Address{CountryCode: "LT", City: "Vilnius", PostalCode: "01103"},
		Parcels:     []carrier.Parcel{{Length: 30, Width: 20, Height: 10, Weight: 1.5}},
	})

	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "venipak", options[0].Carrier)
	assert.Equal(t, "courier", options[0].ServiceCode)
	assert.Equal(t, "4.99", options[0].Price.Amount.String())
	assert.Equal(t, "EUR", options[0].Price.Currency)
	assert.Equal(t, 2, options[0].TransitDays)
}

func TestClient_GetRates_DefaultCurrency(t *testing.T) {
	client, mockAPI := newTestClient(t)
	var gotCurrency string
	mockAPI.OnGetRates = func(ctx context.Context, req *venipak.RatesRequest) (*venipak.RatesResponse, error) {
		gotCurrency = req.Currency
		return &venipak.RatesResponse{}, nil
	}

	_, err := client.GetRates(context.Background(), &carrier.RateRequest{
		Destination: carrier.Address{CountryCode: "LT"},
	})

	require.NoError(t, err)
	assert.Equal(t, "EUR", gotCurrency)
}

func TestClient_CreateShipment(t *testing.T) {
	client, _ := newTestClient(t)

	resp, err := client.CreateShipment(context.Background(), &carrier.CreateShipmentRequest{
		OrderID:        "order-1",
		IdempotencyKey: "key-1",
		Recipient: carrier.Address{
			Name:        "Jonas Jonaitis",
			Line1:       "Gedimino pr. 1",
			City:        "Vilnius",
			PostalCode:  "01103",
			CountryCode: "LT",
		},
		Parcels: []carrier.Parcel{{Length: 30, Width: 20, Height: 10, Weight: 1.5}},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ShipmentID)
	assert.NotEmpty(t, resp.TrackingNumber)
	assert.Equal(t, carrier.StatusCreated, resp.Status)
	assert.Contains(t, resp.LabelURL, resp.ShipmentID)
}

func TestClient_CreateShipment_DedupedOnKey(t *testing.T) {
	client, _ := newTestClient(t)
	req := &carrier.CreateShipmentRequest{
		OrderID:        "order-1",
		IdempotencyKey: "key-1",
		Recipient:      carrier.Address{Name: "Jonas", CountryCode: "LT"},
	}

	first, err := client.CreateShipment(context.Background(), req)
	require.NoError(t, err)

	// Same key replays the carrier-side record instead of creating again.
	second, err := client.CreateShipment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.ShipmentID, second.ShipmentID)
	assert.Equal(t, first.TrackingNumber, second.TrackingNumber)
}

func TestClient_CreateShipment_PickupPointService(t *testing.T) {
	client, mockAPI := newTestClient(t)
	var gotService string
	mockAPI.OnCreateShipment = func(ctx context.Context, req *venipak.ShipmentRequest) (*venipak.ShipmentResponse, error) {
		gotService = req.Service
		return &venipak.ShipmentResponse{ShipmentID: "vp-ship-1", Status: "registered"}, nil
	}

	_, err := client.CreateShipment(context.Background(), &carrier.CreateShipmentRequest{
		OrderID:        "order-1",
		IdempotencyKey: "key-1",
		PickupPointID:  "vp-lt-014",
		Recipient:      carrier.Address{Name: "Jonas", CountryCode: "LT"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pickup_point", gotService)
}

func TestClient_Track(t *testing.T) {
	client, _ := newTestClient(t)

	snapshot, err := client.Track(context.Background(), "V00000000001")

	require.NoError(t, err)
	assert.Equal(t, "V00000000001", snapshot.TrackingNumber)
	assert.Equal(t, carrier.StatusInTransit, snapshot.Status)
	require.Len(t, snapshot.Events, 2)
	assert.Equal(t, carrier.StatusCreated, snapshot.Events[0].Status)
	assert.Equal(t, "registered", snapshot.Events[0].CarrierCode)
}

func TestMapTrackingStatus(t *testing.T) {
	tests := []struct {
		code string
		want carrier.ShipmentStatus
	}{
		{"registered", carrier.StatusCreated},
		{"label_printed", carrier.StatusCreated},
		{"picked_up", carrier.StatusInTransit},
		{"out_for_delivery", carrier.StatusInTransit},
		{"delivered", carrier.StatusDelivered},
		{"failed_delivery", carrier.StatusException},
		{"delayed", carrier.StatusException},
		{"returned", carrier.StatusReturned},
		{"teleported", carrier.ShipmentStatus("")},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, venipak.MapTrackingStatus(tt.code), "code %s", tt.code)
	}
}
