package venipak

import (
	"context"
)

// APIClient defines the interface for Venipak API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetPickupPoints lists pickup points matching the query
	GetPickupPoints(ctx context.Context, req *PickupPointsRequest) (*PickupPointsResponse, error)

	// GetRates fetches shipping rates for a destination and parcel set
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	// CreateShipment registers a shipment and produces a label
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// GetTracking retrieves tracking information for a tracking number
	GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error)
}

// ============================================================================
// API Request/Response Types (match the Venipak web service structure)
// ============================================================================

// PickupPointsRequest filters the pickup point listing.
// GET /ws/get_pickup_points endpoint
type PickupPointsRequest struct {
	Country string // ISO 3166-1 alpha-2 code
	City    string
	Zip     string
	Type    string // "1" terminal, "2" locker, "3" shop
	Limit   int
}

// PickupPointsResponse is the pickup point listing.
type PickupPointsResponse struct {
	Points []PickupPoint `json:"points"`
}

// PickupPoint is a single Venipak pickup location.
type PickupPoint struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Country      string `json:"country"`
	City         string `json:"city"`
	Address      string `json:"address"`
	Zip          string `json:"zip"`
	Type         string `json:"type"`
	WorkingHours string `json:"working_hours,omitempty"`
}

// RatesRequest asks for shipping rates.
// POST /ws/get_rates endpoint
type RatesRequest struct {
	Country  string   `json:"country"`
	City     string   `json:"city"`
	Zip      string   `json:"zip"`
	Currency string   `json:"currency"`
	Parcels  []Parcel `json:"parcels"`
}

// Parcel represents a single package. Dimensions in cm, weight in kg.
type Parcel struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// RatesResponse is the rate listing.
type RatesResponse struct {
	Rates []Rate `json:"rates"`
}

// Rate is a single shipping rate option.
type Rate struct {
	Service      string  `json:"service"` // e.g. "courier", "pickup_point"
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	DeliveryDays int     `json:"delivery_days"`
}

// ShipmentRequest registers a shipment.
// POST /ws/create_shipment endpoint
type ShipmentRequest struct {
	UniqueID      string // client-generated, max 128 chars, prevents duplicates
	Service       string
	Reference     string
	PickupPointID string
	Recipient     Recipient
	Parcels       []Parcel
}

// Recipient holds the consignee details.
type Recipient struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// ShipmentResponse is the shipment registration result.
type ShipmentResponse struct {
	ShipmentID        string `json:"shipment_id"`
	UniqueID          string `json:"unique_id"`
	PreviouslyCreated bool   `json:"previously_created"`
	TrackingNumber    string `json:"tracking_number"`
	Status            string `json:"status"`
	LabelURL          string `json:"label_url"`
}

// TrackingResponse is the tracking state for a shipment.
// GET /ws/tracking endpoint
type TrackingResponse struct {
	TrackingNumber string          `json:"tracking_number"`
	Status         string          `json:"status"`
	Events         []TrackingEvent `json:"events"`
}

// TrackingEvent is a single tracking event.
type TrackingEvent struct {
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status"`
}
