package venipak

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/baltmart/storefront/pkg/gateway"
)

// HTTPAPIClient is the production implementation of APIClient over the
// Venipak web service. Transport concerns (signing, timeout, retry) live in
// the shared gateway client.
type HTTPAPIClient struct {
	gw       *gateway.Client
	username string
	password string
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(gw *gateway.Client, username, password string) *HTTPAPIClient {
	return &HTTPAPIClient{
		gw:       gw,
		username: username,
		password: password,
	}
}

// GetPickupPoints lists pickup points from the Venipak API.
// GET /get_pickup_points
func (c *HTTPAPIClient) GetPickupPoints(ctx context.Context, req *PickupPointsRequest) (*PickupPointsResponse, error) {
	query := url.Values{}
	query.Set("country", req.Country)
	if req.City != "" {
		query.Set("city", req.City)
	}
	if req.Zip != "" {
		query.Set("zip", req.Zip)
	}
	if req.Type != "" {
		query.Set("type", req.Type)
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}

	var resp PickupPointsResponse
	if err := c.gw.Get(ctx, "/get_pickup_points", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRates fetches shipping rates from the Venipak API.
// POST /get_rates
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	params, err := c.credentials()
	if err != nil {
		return nil, err
	}
	params["country"] = req.Country
	params["city"] = req.City
	params["zip"] = req.Zip
	params["currency"] = req.Currency
	params["parcels"] = encodeParcels(req.Parcels)

	// Rate lookup is read-only, so transient failures are safe to retry.
	var resp RatesResponse
	if err := c.gw.PostIdempotent(ctx, "/get_rates", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateShipment registers a shipment via the Venipak API.
// POST /create_shipment. The unique_id field makes retried deliveries
// deduplicate on the carrier side, so the call is retried on transient
// failures.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	if req.UniqueID == "" {
		return nil, fmt.Errorf("venipak: unique_id is required for shipment creation")
	}

	params, err := c.credentials()
	if err != nil {
		return nil, err
	}
	params["unique_id"] = req.UniqueID
	params["service"] = req.Service
	params["reference"] = req.Reference
	params["name"] = req.Recipient.Name
	params["company"] = req.Recipient.Company
	params["address"] = req.Recipient.Address
	params["city"] = req.Recipient.City
	params["zip"] = req.Recipient.Zip
	params["country"] = req.Recipient.Country
	params["phone"] = req.Recipient.Phone
	params["email"] = req.Recipient.Email
	params["parcels"] = encodeParcels(req.Parcels)
	if req.PickupPointID != "" {
		params["pickup_point_id"] = req.PickupPointID
	}

	var resp ShipmentResponse
	if err := c.gw.PostIdempotent(ctx, "/create_shipment", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTracking retrieves tracking information from the Venipak API.
// GET /tracking
func (c *HTTPAPIClient) GetTracking(ctx context.Context, trackingNumber string) (*TrackingResponse, error) {
	query := url.Values{}
	query.Set("tracking_number", trackingNumber)

	var resp TrackingResponse
	if err := c.gw.Get(ctx, "/tracking", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPAPIClient) credentials() (map[string]string, error) {
	if c.username == "" || c.password == "" {
		return nil, fmt.Errorf("venipak: username and password are required")
	}
	return map[string]string{
		"user": c.username,
		"pass": c.password,
	}, nil
}

func encodeParcels(parcels []Parcel) string {
	encoded, err := json.Marshal(parcels)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
