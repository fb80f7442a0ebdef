package venipak

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Countries the mock carrier catalog covers.
var mockCountries = map[string]bool{
	"LT": true,
	"LV": true,
	"EE": true,
	"PL": true,
}

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetPickupPoints func(ctx context.Context, req *PickupPointsRequest) (*PickupPointsResponse, error)
	OnGetRates        func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
	OnCreateShipment  func(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
	OnGetTracking     func(ctx context.Context, trackingNumber string) (*TrackingResponse, error)

	// created tracks unique IDs so replays report previously_created,
	// mirroring the carrier-side deduplication.
	created map[string]*ShipmentResponse
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{
		created: make(map[string]*ShipmentResponse),
	}
}

// GetPickupPoints returns mock pickup points.
func (m *MockAPIClient) GetPickupPoints(ctx context.Context, req *PickupPointsRequest) (*PickupPointsResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, fmt.Errorf("venipak: simulated API error")
	}
	if m.OnGetPickupPoints != nil {
		return m.OnGetPickupPoints(ctx, req)
	}

	if !mockCountries[strings.ToUpper(req.Country)] {
		return &PickupPointsResponse{Points: []PickupPoint{}}, nil
	}

	points := []PickupPoint{
		{
			ID:           "vp-lt-001",
			Name:         "Vilnius Central Terminal",
			Country:      strings.ToUpper(req.Country),
			City:         "Vilnius",
			Address:      "Geležinkelio g. 16",
			Zip:          "02100",
			Type:         "1",
			WorkingHours: "Mon-Fri 08:00-20:00",
		},
		{
			ID:      "vp-lt-014",
			Name:    "Kaunas Akropolis Locker",
			Country: strings.ToUpper(req.Country),
			City:    "Kaunas",
			Address: "Karaliaus Mindaugo pr. 49",
			Zip:     "44333",
			Type:    "2",
		},
		{
			ID:      "vp-lt-027",
			Name:    "Klaipėda Shop",
			Country: strings.ToUpper(req.Country),
			City:    "Klaipėda",
			Address: "Taikos pr. 61",
			Zip:     "91182",
			Type:    "3",
		},
	}

	if req.City != "" {
		filtered := points[:0]
		for _, p := range points {
			if strings.EqualFold(p.City, req.City) {
				filtered = append(filtered, p)
			}
		}
		points = filtered
	}
	if req.Type != "" {
		filtered := make([]PickupPoint, 0, len(points))
		for _, p := range points {
			if p.Type == req.Type {
				filtered = append(filtered, p)
			}
		}
		points = filtered
	}
	if req.Limit > 0 && len(points) > req.Limit {
		points = points[:req.Limit]
	}

	return &PickupPointsResponse{Points: points}, nil
}

// GetRates returns mock shipping rates.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, fmt.Errorf("venipak: simulated API error")
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	return &RatesResponse{
		Rates: []Rate{
			{
				Service:      "courier",
				Name:         "Venipak Courier",
				Price:        4.99,
				Currency:     currency,
				DeliveryDays: 2,
			},
			{
				Service:      "pickup_point",
				Name:         "Venipak Pickup Point",
				Price:        2.49,
				Currency:     currency,
				DeliveryDays: 3,
			},
		},
	}, nil
}

// CreateShipment creates a mock shipment, deduplicating on unique_id.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, fmt.Errorf("venipak: simulated API error")
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	if existing, ok := m.created[req.UniqueID]; ok {
		replay := *existing
		replay.PreviouslyCreated = true
		return &replay, nil
	}

	shipmentID := "vp-ship-" + uuid.New().String()[:8]
	trackingNumber := fmt.Sprintf("V%011d", time.Now().UnixNano()%100000000000)

	resp := &ShipmentResponse{
		ShipmentID:     shipmentID,
		UniqueID:       req.UniqueID,
		TrackingNumber: trackingNumber,
		Status:         "registered",
		LabelURL:       fmt.Sprintf("https://go.venipak.lt/ws/label/%s.pdf", shipmentID),
	}
	m.created[req.UniqueID] = resp
	return resp, nil
}

// GetTracking retrieves mock tracking information.
func (m *MockAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return nil, fmt.Errorf("venipak: simulated API error")
	}
	if m.OnGetTracking != nil {
		return m.OnGetTracking(ctx, trackingNumber)
	}

	now := time.Now()
	return &TrackingResponse{
		TrackingNumber: trackingNumber,
		Status:         "in_transit",
		Events: []TrackingEvent{
			{
				Timestamp:   now.Add(-36 * time.Hour).Format(time.RFC3339),
				Description: "Shipment registered",
				Location:    "Vilnius",
				Status:      "registered",
			},
			{
				Timestamp:   now.Add(-12 * time.Hour).Format(time.RFC3339),
				Description: "In transit to destination",
				Location:    "Kaunas",
				Status:      "in_transit",
			},
		},
	}, nil
}

var _ APIClient = (*MockAPIClient)(nil)
