package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/shipscan/pkg/shipper"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Business Central
	BCTenantID     string `envconfig:"BC_TENANT_ID"`
	BCEnvironment  string `envconfig:"BC_ENVIRONMENT" default:"Production"`
	BCCompanyID    string `envconfig:"BC_COMPANY_ID"`
	BCClientID     string `envconfig:"BC_CLIENT_ID"`
	BCClientSecret string `envconfig:"BC_CLIENT_SECRET"`
	BCScope        string `envconfig:"BC_SCOPE" default:"https://api.businesscentral.dynamics.com/.default"`
	BCBaseURL      string `envconfig:"BC_BASE_URL" default:"https://api.businesscentral.dynamics.com/v2.0"`
	BCAuthURL      string `envconfig:"BC_AUTH_URL" default:"https://login.microsoftonline.com"`
	BCAPIPath      string `envconfig:"BC_API_PATH" default:"art/integration/v1.0"`
	BCUseMock      bool   `envconfig:"BC_USE_MOCK" default:"false"`

	// UPS
	UPSClientID      string  `envconfig:"UPS_CLIENT_ID"`
	UPSClientSecret  string  `envconfig:"UPS_CLIENT_SECRET"`
	UPSAccountNumber string  `envconfig:"UPS_ACCOUNT_NUMBER"`
	UPSBaseURL       string  `envconfig:"UPS_BASE_URL" default:"https://wwwcie.ups.com"`
	UPSAPIVersion    string  `envconfig:"UPS_API_VERSION" default:"v2409"`
	UPSLabelFormat   string  `envconfig:"UPS_LABEL_FORMAT" default:"GIF"`
	UPSRateLimit     float64 `envconfig:"UPS_RATE_LIMIT" default:"5"`
	UPSUseMock       bool    `envconfig:"UPS_USE_MOCK" default:"false"`

	// Warehouse address printed as shipper and ship-from
	ShipperName       string `envconfig:"SHIPPER_NAME"`
	ShipperAttention  string `envconfig:"SHIPPER_ATTENTION"`
	ShipperPhone      string `envconfig:"SHIPPER_PHONE"`
	ShipperLine1      string `envconfig:"SHIPPER_ADDRESS_LINE1"`
	ShipperLine2      string `envconfig:"SHIPPER_ADDRESS_LINE2"`
	ShipperCity       string `envconfig:"SHIPPER_CITY"`
	ShipperState      string `envconfig:"SHIPPER_STATE"`
	ShipperPostalCode string `envconfig:"SHIPPER_POSTAL_CODE"`
	ShipperCountry    string `envconfig:"SHIPPER_COUNTRY" default:"US"`

	// Token cache
	TokenSafetyMargin time.Duration `envconfig:"TOKEN_SAFETY_MARGIN" default:"5m"`

	// Label events, disabled when NATS_URL is empty
	NATSURL     string `envconfig:"NATS_URL"`
	NATSSubject string `envconfig:"NATS_SUBJECT" default:"shipscan.labels.created"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"shipscan"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.TokenSafetyMargin < 0 {
		return nil, fmt.Errorf("loading config: TOKEN_SAFETY_MARGIN must not be negative")
	}
	return &cfg, nil
}

// Origin returns the warehouse address.
func (c *Config) Origin() shipper.Address {
	return shipper.Address{
		Name:          c.ShipperName,
		AttentionName: c.ShipperAttention,
		Line1:         c.ShipperLine1,
		Line2:         c.ShipperLine2,
		City:          c.ShipperCity,
		StateCode:     c.ShipperState,
		PostalCode:    c.ShipperPostalCode,
		CountryCode:   c.ShipperCountry,
		Phone:         c.ShipperPhone,
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("bc.environment", c.BCEnvironment),
		attribute.Bool("bc.mock", c.BCUseMock),
		attribute.Bool("ups.mock", c.UPSUseMock),
		attribute.Bool("events.enabled", c.NATSURL != ""),
	}
}
