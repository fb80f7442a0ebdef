// Package server exposes the storefront integration layer over HTTP:
// checkout-facing REST routes plus the inbound provider callback and
// carrier webhook endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/baltmart/storefront/internal/telemetry"
	"github.com/baltmart/storefront/pkg/carrier"
	"github.com/baltmart/storefront/pkg/payment"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the storefront integration service.
type Server struct {
	port        int
	payments    *payment.Adapter
	fulfillment *carrier.Fulfillment
	registry    *carrier.Registry
	logger      *otelzap.Logger
	metrics     *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, payments *payment.Adapter, fulfillment *carrier.Fulfillment, registry *carrier.Registry, logger *otelzap.Logger) *Server {
	return &Server{
		port:        cfg.Port,
		payments:    payments,
		fulfillment: fulfillment,
		registry:    registry,
		logger:      logger,
		metrics:     telemetry.NewMetrics(),
	}
}

// Handler builds the route table. Split out from Run so tests can drive the
// mux without a listening socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Probes and metrics
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Payment
	mux.HandleFunc("POST /store/payment/sessions", s.handleCreatePaymentSession)
	mux.HandleFunc("POST /payment/callback", s.handlePaymentCallback)

	// Shipping
	mux.HandleFunc("GET /store/venipak/pickup-points", s.handlePickupPoints)
	mux.HandleFunc("GET /store/venipak/test", s.handleCarrierTest)
	mux.HandleFunc("POST /store/shipping/venipak/rates", s.handleRates)
	mux.HandleFunc("POST /store/shipping/venipak/labels", s.handleCreateLabel)
	mux.HandleFunc("GET /store/shipping/venipak/track/{tracking_number}", s.handleTrack)
	mux.HandleFunc("POST /store/shipping/venipak/webhook", s.handleTrackingWebhook)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
