package carrier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/baltmart/storefront/pkg/signing"
	"github.com/google/uuid"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const defaultPickupPointLimit = 100

// Fulfillment is the adapter between the commerce framework and the
// registered carriers. It owns shipment persistence and the tracking
// webhook; it never touches the framework's own order tables.
type Fulfillment struct {
	registry  *Registry
	store     ShipmentStore
	codec     *signing.Codec
	mapStatus func(string) ShipmentStatus
	logger    *otelzap.Logger
}

// NewFulfillment creates the fulfillment adapter. mapStatus translates the
// carrier's webhook status vocabulary into the internal enum.
func NewFulfillment(registry *Registry, store ShipmentStore, codec *signing.Codec, mapStatus func(string) ShipmentStatus, logger *otelzap.Logger) *Fulfillment {
	return &Fulfillment{
		registry:  registry,
		store:     store,
		codec:     codec,
		mapStatus: mapStatus,
		logger:    logger,
	}
}

// ListPickupPoints queries a carrier's pickup points. An unsupported country
// code yields an empty list rather than an error: the carrier catalog is
// sparse by design.
func (f *Fulfillment) ListPickupPoints(ctx context.Context, carrierName string, query *PickupPointQuery) ([]PickupPoint, error) {
	if query.CountryCode == "" {
		return nil, fmt.Errorf("%w: country code is required", ErrValidationFailed)
	}
	if query.Limit <= 0 || query.Limit > defaultPickupPointLimit {
		query.Limit = defaultPickupPointLimit
	}
	query.CountryCode = strings.ToUpper(query.CountryCode)

	c, err := f.registry.Get(carrierName)
	if err != nil {
		return nil, err
	}

	points, err := c.ListPickupPoints(ctx, query)
	if err != nil {
		return nil, mapCarrierFailure(err)
	}
	if points == nil {
		points = []PickupPoint{}
	}
	return points, nil
}

// QuoteRates derives candidate shipping options for a destination and parcel
// set, fanning out to all registered carriers. Individual carrier failures
// are logged but never fail the quote as a whole.
func (f *Fulfillment) QuoteRates(ctx context.Context, req *RateRequest) ([]ShippingOption, error) {
	if req.Destination.CountryCode == "" {
		return nil, fmt.Errorf("%w: destination country is required", ErrValidationFailed)
	}

	options, errs := f.registry.GetAllRates(ctx, req)
	for _, err := range errs {
		f.logger.Warn("Carrier quote failed", zap.Error(err))
	}
	if len(options) == 0 && len(errs) == len(f.registry.All()) && len(errs) > 0 {
		return nil, ErrProviderUnavailable
	}
	return options, nil
}

// CreateLabel requests a label from the carrier and persists the resulting
// shipment. The operation is idempotent on the client-generated key: a
// retried request returns the already-created shipment instead of creating
// a duplicate.
func (f *Fulfillment) CreateLabel(ctx context.Context, carrierName string, req *CreateShipmentRequest) (*Shipment, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrValidationFailed)
	}
	if req.Recipient.CountryCode == "" {
		return nil, fmt.Errorf("%w: recipient country is required", ErrValidationFailed)
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	if existing, err := f.store.FindByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		f.logger.Info("Label request replayed, returning existing shipment",
			zap.String("order_id", req.OrderID),
			zap.String("shipment_id", existing.ID),
		)
		return existing, nil
	} else if !errors.Is(err, ErrShipmentNotFound) {
		return nil, err
	}

	c, err := f.registry.Get(carrierName)
	if err != nil {
		return nil, err
	}

	resp, err := c.CreateShipment(ctx, req)
	if err != nil {
		return nil, mapCarrierFailure(err)
	}

	shipment := &Shipment{
		ID:             resp.ShipmentID,
		OrderID:        req.OrderID,
		IdempotencyKey: req.IdempotencyKey,
		Carrier:        carrierName,
		TrackingNumber: resp.TrackingNumber,
		Status:         StatusCreated,
		LabelURL:       resp.LabelURL,
	}
	if shipment.ID == "" {
		shipment.ID = uuid.New().String()
	}
	if err := f.store.Create(ctx, shipment); err != nil {
		return nil, err
	}

	f.logger.Info("Shipment created",
		zap.String("order_id", req.OrderID),
		zap.String("shipment_id", shipment.ID),
		zap.String("tracking_number", shipment.TrackingNumber),
	)
	return shipment, nil
}

// Track resolves a shipment's current delivery status on demand. An unknown
// tracking number yields ErrShipmentNotFound, never a transport failure.
func (f *Fulfillment) Track(ctx context.Context, carrierName, trackingNumber string) (*TrackingSnapshot, error) {
	if trackingNumber == "" {
		return nil, fmt.Errorf("%w: tracking number is required", ErrValidationFailed)
	}

	c, err := f.registry.Get(carrierName)
	if err != nil {
		return nil, err
	}

	snapshot, err := c.Track(ctx, trackingNumber)
	if err != nil {
		return nil, mapCarrierFailure(err)
	}
	return snapshot, nil
}

// HandleTrackingWebhook verifies an inbound carrier notification and applies
// a monotonic status update. A status older than the recorded one is ignored
// and logged, preserving forward-only shipment history. Duplicate deliveries
// are acknowledged without effect.
func (f *Fulfillment) HandleTrackingWebhook(ctx context.Context, payload map[string]string) error {
	signature := payload[signing.SignatureField]
	if !f.codec.Verify(payload, signature) {
		f.logger.Warn("Tracking webhook signature mismatch",
			zap.String("tracking_number", payload["tracking_number"]),
		)
		return ErrAuthenticationFailed
	}

	trackingNumber := payload["tracking_number"]
	statusCode := payload["status"]
	if trackingNumber == "" || statusCode == "" {
		return fmt.Errorf("%w: tracking_number and status are required", ErrValidationFailed)
	}

	status := f.mapStatus(statusCode)
	if status.Rank() < 0 {
		return fmt.Errorf("%w: unrecognized carrier status %q", ErrValidationFailed, statusCode)
	}

	shipment, applied, err := f.store.AdvanceStatus(ctx, trackingNumber, status)
	if err != nil {
		return err
	}
	if !applied {
		f.logger.Info("Stale tracking update ignored",
			zap.String("tracking_number", trackingNumber),
			zap.String("recorded_status", string(shipment.Status)),
			zap.String("update_status", string(status)),
		)
		return nil
	}

	f.logger.Info("Shipment status advanced",
		zap.String("tracking_number", trackingNumber),
		zap.String("status", string(status)),
	)
	return nil
}

// mapCarrierFailure folds structured carrier errors into the adapter
// taxonomy: business rejections are permanent, transport failures transient.
func mapCarrierFailure(err error) error {
	var carrierErr *CarrierError
	if errors.As(err, &carrierErr) {
		if carrierErr.Retryable {
			return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		if carrierErr.StatusCode == 404 {
			return fmt.Errorf("%w: %v", ErrShipmentNotFound, err)
		}
		return fmt.Errorf("%w: %v", ErrFulfillmentRejected, err)
	}
	return err
}
