package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Persistence. When empty, in-memory stores are used.
	DatabaseDSN string `envconfig:"DATABASE_DSN"`

	// Payment provider
	PaymentProjectID    string `envconfig:"PAYMENT_PROJECT_ID"`
	PaymentSignPassword string `envconfig:"PAYMENT_SIGN_PASSWORD"`
	PaymentPayURL       string `envconfig:"PAYMENT_PAY_URL" default:"https://bank.paysera.com/pay"`
	PaymentAPIBaseURL   string `envconfig:"PAYMENT_API_BASE_URL" default:"https://www.paysera.com/rest/v1"`
	PaymentAcceptURL    string `envconfig:"PAYMENT_ACCEPT_URL"`
	PaymentCancelURL    string `envconfig:"PAYMENT_CANCEL_URL"`
	PaymentCallbackURL  string `envconfig:"PAYMENT_CALLBACK_URL"`
	PaymentTestMode     bool   `envconfig:"PAYMENT_TEST_MODE" default:"false"`
	PaymentUseMock      bool   `envconfig:"PAYMENT_USE_MOCK" default:"false"`
	// Sessions still awaiting payment after this many minutes are swept.
	PaymentSessionTTLMinutes int `envconfig:"PAYMENT_SESSION_TTL_MINUTES" default:"60"`

	// Venipak
	VenipakAPIKey          string `envconfig:"VENIPAK_API_KEY"`
	VenipakUsername        string `envconfig:"VENIPAK_USERNAME"`
	VenipakPassword        string `envconfig:"VENIPAK_PASSWORD"`
	VenipakWebhookSecret   string `envconfig:"VENIPAK_WEBHOOK_SECRET"`
	VenipakBaseURL         string `envconfig:"VENIPAK_BASE_URL" default:"https://go.venipak.lt/ws"`
	VenipakDefaultCurrency string `envconfig:"VENIPAK_DEFAULT_CURRENCY" default:"EUR"`
	VenipakTestMode        bool   `envconfig:"VENIPAK_TEST_MODE" default:"false"`
	VenipakUseMock         bool   `envconfig:"VENIPAK_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"baltmart-storefront"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
// Secrets are deliberately absent.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("payment.test_mode", c.PaymentTestMode),
		attribute.Bool("venipak.test_mode", c.VenipakTestMode),
		attribute.Bool("persistence.database", c.DatabaseDSN != ""),
	}
}
