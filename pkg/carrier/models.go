package carrier

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShipmentStatus represents the normalized status of a shipment.
type ShipmentStatus string

const (
	StatusCreated   ShipmentStatus = "created"
	StatusInTransit ShipmentStatus = "in_transit"
	StatusException ShipmentStatus = "exception"
	StatusDelivered ShipmentStatus = "delivered"
	StatusReturned  ShipmentStatus = "returned"
)

// statusRank orders statuses along the forward-only delivery sequence.
// Tracking updates may only move a shipment to a higher rank.
var statusRank = map[ShipmentStatus]int{
	StatusCreated:   0,
	StatusInTransit: 1,
	StatusException: 2,
	StatusDelivered: 3,
	StatusReturned:  4,
}

// Rank returns the position of s in the delivery sequence, or -1 for an
// unknown status.
func (s ShipmentStatus) Rank() int {
	if rank, ok := statusRank[s]; ok {
		return rank
	}
	return -1
}

// Terminal reports whether no further tracking update may follow s.
func (s ShipmentStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusReturned
}

// PickupPointType represents the kind of pickup location.
type PickupPointType string

const (
	PickupPointLocker   PickupPointType = "locker"
	PickupPointShop     PickupPointType = "shop"
	PickupPointTerminal PickupPointType = "terminal"
)

// PickupPoint is a carrier pickup location. It is read-only data sourced
// live from the carrier and never persisted beyond request scope.
type PickupPoint struct {
	ID           string          `json:"id"`
	CountryCode  string          `json:"country_code"` // ISO 3166-1 alpha-2
	City         string          `json:"city"`
	Address      string          `json:"address"`
	Zip          string          `json:"zip"`
	Type         PickupPointType `json:"type"`
	Name         string          `json:"name"`
	WorkingHours string          `json:"working_hours,omitempty"`
}

// Address represents a delivery address.
type Address struct {
	Name        string `json:"name"`
	Company     string `json:"company,omitempty"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"` // ISO 3166-1 alpha-2
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Parcel represents a package to be shipped. Dimensions are in cm,
// weight in kg.
type Parcel struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// Money represents a monetary amount.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// ShippingOption is a shipping rate candidate offered to the checkout.
type ShippingOption struct {
	Carrier     string `json:"carrier"`
	ServiceCode string `json:"service_code"`
	ServiceName string `json:"service_name"`
	Price       Money  `json:"price"`
	TransitDays int    `json:"transit_days"`
	// PickupPointID is set when the option delivers to a pickup point
	// rather than the destination address.
	PickupPointID string `json:"pickup_point_id,omitempty"`
}

// Shipment is the persisted record of a carrier shipment bound to an order.
// It is created on label request, mutated only by tracking updates, and
// never deleted.
type Shipment struct {
	ID             string         `json:"id" gorm:"primaryKey;column:id"`
	OrderID        string         `json:"order_id" gorm:"column:order_id;index"`
	IdempotencyKey string         `json:"-" gorm:"column:idempotency_key;uniqueIndex"`
	Carrier        string         `json:"carrier" gorm:"column:carrier"`
	TrackingNumber string         `json:"tracking_number" gorm:"column:tracking_number;index"`
	Status         ShipmentStatus `json:"status" gorm:"column:status"`
	LabelURL       string         `json:"label_url" gorm:"column:label_url"`
	CreatedAt      time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

// TrackingEvent is a single event in a shipment's tracking history.
type TrackingEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	Description string         `json:"description"`
	Location    string         `json:"location,omitempty"`
	Status      ShipmentStatus `json:"status"`
	CarrierCode string         `json:"carrier_code,omitempty"`
}

// TrackingSnapshot is the carrier's current view of a shipment.
type TrackingSnapshot struct {
	TrackingNumber string          `json:"tracking_number"`
	Status         ShipmentStatus  `json:"status"`
	Events         []TrackingEvent `json:"events,omitempty"`
}

// ============================================================================
// Request/Response Types
// ============================================================================

// PickupPointQuery filters a pickup point listing.
type PickupPointQuery struct {
	CountryCode string
	City        string
	PostalCode  string
	Type        PickupPointType
	Limit       int
}

// RateRequest asks for shipping options for a cart destination.
type RateRequest struct {
	Destination Address
	Parcels     []Parcel
	Currency    string
}

// CreateShipmentRequest asks the carrier for a label bound to an order.
type CreateShipmentRequest struct {
	OrderID        string
	IdempotencyKey string
	ServiceCode    string
	Recipient      Address
	Parcels        []Parcel
	// PickupPointID routes the shipment to a pickup point when set.
	PickupPointID string
	Reference     string
}

// CreateShipmentResponse is the carrier's answer to a label request.
type CreateShipmentResponse struct {
	ShipmentID     string
	TrackingNumber string
	Status         ShipmentStatus
	LabelURL       string
}
