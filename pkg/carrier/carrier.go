// Package carrier provides an abstraction layer for logistics carriers.
package carrier

import (
	"context"
)

// Carrier defines the interface a logistics carrier integration must implement.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "venipak").
	Name() string

	// ListPickupPoints returns the carrier's pickup points matching the query.
	// An empty result is a valid answer, not an error: the carrier catalog is
	// sparse and unsupported countries simply have no points.
	ListPickupPoints(ctx context.Context, query *PickupPointQuery) ([]PickupPoint, error)

	// GetRates returns shipping options for a destination and parcel set.
	GetRates(ctx context.Context, req *RateRequest) ([]ShippingOption, error)

	// CreateShipment requests a label from the carrier. The request carries a
	// client-generated idempotency key so a retried call cannot create a
	// duplicate shipment on the carrier side.
	CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*CreateShipmentResponse, error)

	// Track returns the current delivery status for a tracking number.
	Track(ctx context.Context, trackingNumber string) (*TrackingSnapshot, error)
}
