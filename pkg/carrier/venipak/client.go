// Package venipak provides integration with the Venipak logistics API.
package venipak

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/baltmart/storefront/pkg/carrier"
	"github.com/baltmart/storefront/pkg/gateway"
	"github.com/baltmart/storefront/pkg/signing"
	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "venipak"

// Config holds Venipak configuration.
type Config struct {
	APIKey          string
	Username        string
	Password        string
	BaseURL         string
	DefaultCurrency string
	TestMode        bool
	UseMock         bool // When true, uses mock API client
}

// Client is the Venipak carrier client.
// It implements the carrier.Carrier interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Venipak client. Outbound requests are signed with codec
// through the shared gateway transport. If cfg.UseMock is true, a mock API
// client is used instead.
func New(cfg Config, codec *signing.Codec, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		gw := gateway.New(gateway.Config{
			Provider: carrierName,
			BaseURL:  cfg.BaseURL,
			Timeout:  10 * time.Second,
			Headers:  map[string]string{"X-API-Key": cfg.APIKey},
		}, codec, logger)
		apiClient = NewHTTPAPIClient(gw, cfg.Username, cfg.Password)
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new Venipak client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// ListPickupPoints returns Venipak pickup points matching the query.
func (c *Client) ListPickupPoints(ctx context.Context, query *carrier.PickupPointQuery) ([]carrier.PickupPoint, error) {
	c.logger.Info("Listing Venipak pickup points",
		zap.String("country", query.CountryCode),
		zap.String("city", query.City),
	)

	apiResp, err := c.apiClient.GetPickupPoints(ctx, &PickupPointsRequest{
		Country: query.CountryCode,
		City:    query.City,
		Zip:     query.PostalCode,
		Type:    pickupTypeToAPI(query.Type),
		Limit:   query.Limit,
	})
	if err != nil {
		c.logger.Error("Venipak API error", zap.Error(err))
		return nil, toCarrierError(err)
	}

	points := make([]carrier.PickupPoint, len(apiResp.Points))
	for i, p := range apiResp.Points {
		points[i] = pickupPointToCarrier(p)
	}
	return points, nil
}

// GetRates returns shipping options from Venipak.
func (c *Client) GetRates(ctx context.Context, req *carrier.RateRequest) ([]carrier.ShippingOption, error) {
	c.logger.Info("Getting Venipak rates",
		zap.String("country", req.Destination.CountryCode),
		zap.Int("parcel_count", len(req.Parcels)),
	)

	currency := req.Currency
	if currency == "" {
		currency = c.config.DefaultCurrency
	}

	apiResp, err := c.apiClient.GetRates(ctx, &RatesRequest{
		Country:  req.Destination.CountryCode,
		City:     req.Destination.City,
		Zip:      req.Destination.PostalCode,
		Currency: currency,
		Parcels:  parcelsToAPI(req.Parcels),
	})
	if err != nil {
		c.logger.Error("Venipak API error", zap.Error(err))
		return nil, toCarrierError(err)
	}

	options := make([]carrier.ShippingOption, len(apiResp.Rates))
	for i, r := range apiResp.Rates {
		options[i] = carrier.ShippingOption{
			Carrier:     carrierName,
			ServiceCode: r.Service,
			ServiceName: r.Name,
			Price: carrier.Money{
				Amount:   decimal.NewFromFloat(r.Price),
				Currency: r.Currency,
			},
			TransitDays: r.DeliveryDays,
		}
	}
	return options, nil
}

// CreateShipment registers a shipment with Venipak. The idempotency key is
// forwarded as the carrier's unique_id so a retried request cannot create a
// duplicate shipment.
func (c *Client) CreateShipment(ctx context.Context, req *carrier.CreateShipmentRequest) (*carrier.CreateShipmentResponse, error) {
	c.logger.Info("Creating Venipak shipment",
		zap.String("order_id", req.OrderID),
		zap.String("recipient", req.Recipient.Name),
	)

	service := req.ServiceCode
	if service == "" {
		service = "courier"
	}
	if req.PickupPointID != "" {
		service = "pickup_point"
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, &ShipmentRequest{
		UniqueID:      req.IdempotencyKey,
		Service:       service,
		Reference:     req.Reference,
		PickupPointID: req.PickupPointID,
		Recipient:     addressToRecipient(req.Recipient),
		Parcels:       parcelsToAPI(req.Parcels),
	})
	if err != nil {
		c.logger.Error("Venipak API error", zap.Error(err))
		return nil, toCarrierError(err)
	}

	if apiResp.PreviouslyCreated {
		c.logger.Info("Venipak deduplicated shipment creation",
			zap.String("shipment_id", apiResp.ShipmentID),
		)
	}

	return &carrier.CreateShipmentResponse{
		ShipmentID:     apiResp.ShipmentID,
		TrackingNumber: apiResp.TrackingNumber,
		Status:         MapTrackingStatus(apiResp.Status),
		LabelURL:       apiResp.LabelURL,
	}, nil
}

// Track returns the current delivery status for a tracking number.
func (c *Client) Track(ctx context.Context, trackingNumber string) (*carrier.TrackingSnapshot, error) {
	apiResp, err := c.apiClient.GetTracking(ctx, trackingNumber)
	if err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) && gwErr.StatusCode == http.StatusNotFound {
			return nil, carrier.ErrShipmentNotFound
		}
		c.logger.Error("Venipak API error", zap.Error(err))
		return nil, toCarrierError(err)
	}

	events := make([]carrier.TrackingEvent, 0, len(apiResp.Events))
	for _, e := range apiResp.Events {
		timestamp, _ := time.Parse(time.RFC3339, e.Timestamp)
		events = append(events, carrier.TrackingEvent{
			Timestamp:   timestamp,
			Description: e.Description,
			Location:    e.Location,
			Status:      MapTrackingStatus(e.Status),
			CarrierCode: e.Status,
		})
	}

	return &carrier.TrackingSnapshot{
		TrackingNumber: apiResp.TrackingNumber,
		Status:         MapTrackingStatus(apiResp.Status),
		Events:         events,
	}, nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func pickupPointToCarrier(p PickupPoint) carrier.PickupPoint {
	return carrier.PickupPoint{
		ID:           p.ID,
		CountryCode:  p.Country,
		City:         p.City,
		Address:      p.Address,
		Zip:          p.Zip,
		Type:         pickupTypeFromAPI(p.Type),
		Name:         p.Name,
		WorkingHours: p.WorkingHours,
	}
}

func addressToRecipient(addr carrier.Address) Recipient {
	address := addr.Line1
	if addr.Line2 != "" {
		address += ", " + addr.Line2
	}
	return Recipient{
		Name:    addr.Name,
		Company: addr.Company,
		Address: address,
		City:    addr.City,
		Zip:     addr.PostalCode,
		Country: addr.CountryCode,
		Phone:   addr.Phone,
		Email:   addr.Email,
	}
}

func parcelsToAPI(parcels []carrier.Parcel) []Parcel {
	result := make([]Parcel, len(parcels))
	for i, p := range parcels {
		result[i] = Parcel{
			Length: p.Length,
			Width:  p.Width,
			Height: p.Height,
			Weight: p.Weight,
		}
	}
	return result
}

func pickupTypeToAPI(t carrier.PickupPointType) string {
	switch t {
	case carrier.PickupPointTerminal:
		return "1"
	case carrier.PickupPointLocker:
		return "2"
	case carrier.PickupPointShop:
		return "3"
	default:
		return ""
	}
}

func pickupTypeFromAPI(t string) carrier.PickupPointType {
	switch t {
	case "1":
		return carrier.PickupPointTerminal
	case "2":
		return carrier.PickupPointLocker
	case "3":
		return carrier.PickupPointShop
	default:
		return carrier.PickupPointTerminal
	}
}

// MapTrackingStatus maps the Venipak status vocabulary to the internal
// shipment status enum. Unknown codes map to the zero value, which callers
// treat as unrecognized.
func MapTrackingStatus(status string) carrier.ShipmentStatus {
	switch status {
	case "registered", "created", "label_printed":
		return carrier.StatusCreated
	case "picked_up", "in_transit", "sorting", "out_for_delivery":
		return carrier.StatusInTransit
	case "delivered":
		return carrier.StatusDelivered
	case "failed_delivery", "exception", "delayed":
		return carrier.StatusException
	case "returned", "returning":
		return carrier.StatusReturned
	default:
		return carrier.ShipmentStatus("")
	}
}

// toCarrierError folds transport errors into the structured carrier error.
func toCarrierError(err error) error {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return carrier.NewCarrierError(carrierName, "API_ERROR", gwErr.Message).
			WithStatusCode(gwErr.StatusCode).
			WithRetryable(gwErr.Retryable).
			WithCause(err)
	}
	return carrier.NewCarrierError(carrierName, "API_ERROR", err.Error()).
		WithRetryable(true).
		WithCause(err)
}

// Ensure Client implements carrier.Carrier interface
var _ carrier.Carrier = (*Client)(nil)
