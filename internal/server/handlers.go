package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/baltmart/storefront/pkg/carrier"
	"github.com/baltmart/storefront/pkg/payment"
	"go.uber.org/zap"
)

const carrierVenipak = "venipak"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError folds the adapter error taxonomy into HTTP statuses. Transient
// provider failures surface as 503 so upstream retries naturally.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrAuthenticationFailed),
		errors.Is(err, carrier.ErrAuthenticationFailed):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "signature verification failed"})
	case errors.Is(err, payment.ErrValidationFailed),
		errors.Is(err, carrier.ErrValidationFailed):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, payment.ErrSessionNotFound),
		errors.Is(err, carrier.ErrShipmentNotFound),
		errors.Is(err, carrier.ErrCarrierNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, carrier.ErrFulfillmentRejected):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, payment.ErrProviderUnavailable),
		errors.Is(err, carrier.ErrProviderUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func errorLabel(err error) string {
	switch {
	case errors.Is(err, payment.ErrAuthenticationFailed), errors.Is(err, carrier.ErrAuthenticationFailed):
		return "authentication"
	case errors.Is(err, payment.ErrValidationFailed), errors.Is(err, carrier.ErrValidationFailed):
		return "validation"
	case errors.Is(err, payment.ErrProviderUnavailable), errors.Is(err, carrier.ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, carrier.ErrFulfillmentRejected):
		return "rejected"
	default:
		return "other"
	}
}

// ============================================================================
// Payment
// ============================================================================

type createSessionBody struct {
	CartID   string `json:"cart_id"`
	OrderID  string `json:"order_id,omitempty"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (s *Server) handleCreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body createSessionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	result, err := s.payments.CreateSession(r.Context(), &payment.CreateSessionRequest{
		CartID:   body.CartID,
		OrderID:  body.OrderID,
		Amount:   body.Amount,
		Currency: body.Currency,
	})
	if err != nil {
		s.metrics.RecordError("payment", errorLabel(err))
		s.metrics.RecordRequest("create_session", "payment", "error", time.Since(start).Seconds())
		writeError(w, err)
		return
	}

	if err := s.payments.MarkRedirected(r.Context(), result.Session.Reference); err != nil {
		s.logger.Warn("Failed to mark session redirected", zap.Error(err))
	}

	s.metrics.RecordRequest("create_session", "payment", "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusCreated, result)
}

// handlePaymentCallback receives the provider's server-to-server payment
// notification. The provider expects the ack body verbatim; anything else
// triggers provider-side redelivery.
func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form body"})
		return
	}
	payload := make(map[string]string, len(r.Form))
	for key := range r.Form {
		payload[key] = r.Form.Get(key)
	}

	result, err := s.payments.HandleCallback(r.Context(), payload)
	if err != nil {
		s.metrics.RecordCallback("payment", errorLabel(err))
		writeError(w, err)
		return
	}

	outcome := "acknowledged"
	if result.Applied {
		outcome = "applied"
	} else if result.Duplicate {
		outcome = "duplicate"
	}
	s.metrics.RecordCallback("payment", outcome)

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(result.Ack))
}

// ============================================================================
// Shipping
// ============================================================================

func (s *Server) handlePickupPoints(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	points, err := s.fulfillment.ListPickupPoints(r.Context(), carrierVenipak, &carrier.PickupPointQuery{
		CountryCode: q.Get("country"),
		City:        q.Get("city"),
		PostalCode:  q.Get("postal_code"),
		Type:        carrier.PickupPointType(q.Get("type")),
		Limit:       limit,
	})
	if err != nil {
		s.metrics.RecordError(carrierVenipak, errorLabel(err))
		s.metrics.RecordRequest("pickup_points", carrierVenipak, "error", time.Since(start).Seconds())
		writeError(w, err)
		return
	}

	s.metrics.RecordRequest("pickup_points", carrierVenipak, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, map[string]interface{}{"pickup_points": points})
}

type rateBody struct {
	Destination carrier.Address  `json:"destination"`
	Parcels     []carrier.Parcel `json:"parcels"`
	Currency    string           `json:"currency,omitempty"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body rateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	options, err := s.fulfillment.QuoteRates(r.Context(), &carrier.RateRequest{
		Destination: body.Destination,
		Parcels:     body.Parcels,
		Currency:    body.Currency,
	})
	if err != nil {
		s.metrics.RecordError(carrierVenipak, errorLabel(err))
		s.metrics.RecordRequest("rates", carrierVenipak, "error", time.Since(start).Seconds())
		writeError(w, err)
		return
	}

	s.metrics.RecordRequest("rates", carrierVenipak, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, map[string]interface{}{"options": options})
}

type labelBody struct {
	OrderID       string           `json:"order_id"`
	ServiceCode   string           `json:"service_code,omitempty"`
	Recipient     carrier.Address  `json:"recipient"`
	Parcels       []carrier.Parcel `json:"parcels"`
	PickupPointID string           `json:"pickup_point_id,omitempty"`
	Reference     string           `json:"reference,omitempty"`
}

func (s *Server) handleCreateLabel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body labelBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	shipment, err := s.fulfillment.CreateLabel(r.Context(), carrierVenipak, &carrier.CreateShipmentRequest{
		OrderID:        body.OrderID,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		ServiceCode:    body.ServiceCode,
		Recipient:      body.Recipient,
		Parcels:        body.Parcels,
		PickupPointID:  body.PickupPointID,
		Reference:      body.Reference,
	})
	if err != nil {
		s.metrics.RecordError(carrierVenipak, errorLabel(err))
		s.metrics.RecordRequest("create_label", carrierVenipak, "error", time.Since(start).Seconds())
		writeError(w, err)
		return
	}

	s.metrics.RecordRequest("create_label", carrierVenipak, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusCreated, shipment)
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	snapshot, err := s.fulfillment.Track(r.Context(), carrierVenipak, r.PathValue("tracking_number"))
	if err != nil {
		s.metrics.RecordError(carrierVenipak, errorLabel(err))
		s.metrics.RecordRequest("track", carrierVenipak, "error", time.Since(start).Seconds())
		writeError(w, err)
		return
	}

	s.metrics.RecordRequest("track", carrierVenipak, "ok", time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleTrackingWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form body"})
		return
	}
	payload := make(map[string]string, len(r.Form))
	for key := range r.Form {
		payload[key] = r.Form.Get(key)
	}

	if err := s.fulfillment.HandleTrackingWebhook(r.Context(), payload); err != nil {
		s.metrics.RecordCallback(carrierVenipak, errorLabel(err))
		writeError(w, err)
		return
	}

	s.metrics.RecordCallback(carrierVenipak, "applied")
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleCarrierTest probes carrier connectivity with a cheap read-only call.
func (s *Server) handleCarrierTest(w http.ResponseWriter, r *http.Request) {
	_, err := s.fulfillment.ListPickupPoints(r.Context(), carrierVenipak, &carrier.PickupPointQuery{
		CountryCode: "LT",
		Limit:       1,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"carrier":  carrierVenipak,
		"carriers": s.registry.Names(),
	})
}
