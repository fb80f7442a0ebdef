package main

import (
	"context"
	"fmt"

	"github.com/baltmart/storefront/internal/config"
	"github.com/baltmart/storefront/internal/telemetry"
	"github.com/baltmart/storefront/pkg/carrier"
	"github.com/baltmart/storefront/pkg/carrier/venipak"
	"github.com/baltmart/storefront/pkg/payment"
	"github.com/baltmart/storefront/pkg/payment/paysera"
	"github.com/baltmart/storefront/pkg/signing"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

// initStores opens the configured database and builds both persistence
// layers over it. Without a DSN everything runs on in-memory stores, which
// suits local development and the mock-mode deployment.
func initStores(cfg *config.Config, logger *otelzap.Logger) (payment.SessionStore, carrier.ShipmentStore, error) {
	if cfg.DatabaseDSN == "" {
		logger.Warn("No database DSN configured, using in-memory stores")
		return payment.NewMemorySessionStore(), carrier.NewMemoryShipmentStore(), nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	sessions, err := payment.NewGormSessionStore(db)
	if err != nil {
		return nil, nil, fmt.Errorf("migrating payment sessions: %w", err)
	}
	shipments, err := carrier.NewGormShipmentStore(db)
	if err != nil {
		return nil, nil, fmt.Errorf("migrating shipments: %w", err)
	}
	return sessions, shipments, nil
}

func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger) *carrier.Registry {
	registry := carrier.NewRegistry()
	tracer := otel.GetTracerProvider().Tracer(cfg.ServiceName)

	registry.Register(newVenipak(cfg, logger, tracer))
	return registry
}

func newVenipak(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *venipak.Client {
	codec := signing.NewCodec(cfg.VenipakWebhookSecret,
		signing.WithAlgorithm(signing.AlgorithmSHA256),
	)
	return venipak.New(venipak.Config{
		APIKey:          cfg.VenipakAPIKey,
		Username:        cfg.VenipakUsername,
		Password:        cfg.VenipakPassword,
		BaseURL:         cfg.VenipakBaseURL,
		DefaultCurrency: cfg.VenipakDefaultCurrency,
		TestMode:        cfg.VenipakTestMode,
		UseMock:         cfg.VenipakUseMock,
	}, codec, logger, tracer)
}

func initFulfillment(cfg *config.Config, registry *carrier.Registry, store carrier.ShipmentStore, logger *otelzap.Logger) *carrier.Fulfillment {
	webhookCodec := signing.NewCodec(cfg.VenipakWebhookSecret,
		signing.WithAlgorithm(signing.AlgorithmSHA256),
	)
	return carrier.NewFulfillment(registry, store, webhookCodec, venipak.MapTrackingStatus, logger)
}

func initPaymentAdapter(cfg *config.Config, store payment.SessionStore, logger *otelzap.Logger) *payment.Adapter {
	codec := signing.NewCodec(cfg.PaymentSignPassword)
	provider := paysera.New(paysera.Config{
		ProjectID:   cfg.PaymentProjectID,
		PayURL:      cfg.PaymentPayURL,
		APIBaseURL:  cfg.PaymentAPIBaseURL,
		AcceptURL:   cfg.PaymentAcceptURL,
		CancelURL:   cfg.PaymentCancelURL,
		CallbackURL: cfg.PaymentCallbackURL,
		TestMode:    cfg.PaymentTestMode,
		UseMock:     cfg.PaymentUseMock,
	}, codec, logger)

	// Downstream order completion. The commerce framework hangs its own
	// workflow off this hook; here it is the audit log entry.
	onConfirmed := func(ctx context.Context, session *payment.PaymentSession) {
		logger.Ctx(ctx).Info("Order completion dispatched",
			zap.String("reference", session.Reference),
			zap.String("cart_id", session.CartID),
			zap.String("order_id", session.OrderID),
		)
	}

	return payment.NewAdapter(provider, store, onConfirmed, logger)
}
