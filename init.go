package main

import (
	"context"

	"github.com/tournevent/shipscan/internal/config"
	"github.com/tournevent/shipscan/internal/events"
	"github.com/tournevent/shipscan/internal/telemetry"
	"github.com/tournevent/shipscan/internal/workflow"
	"github.com/tournevent/shipscan/pkg/erp"
	"github.com/tournevent/shipscan/pkg/shipper"
	"github.com/tournevent/shipscan/pkg/shipper/ups"
	"github.com/tournevent/shipscan/pkg/token"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

// initTracer always returns a usable tracer; without OTLP it comes from the
// global no-op provider.
func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	fallback := otel.Tracer(cfg.ServiceName)
	if !cfg.OTELEnabled {
		return fallback, func(context.Context) error { return nil }, nil
	}

	tracer, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
	if err != nil {
		return fallback, nil, err
	}
	return tracer, shutdown, nil
}

// initTokenCache builds the one cache shared by the ERP and carrier clients.
func initTokenCache(cfg *config.Config, logger *otelzap.Logger, metrics *telemetry.Metrics) *token.Cache {
	return token.NewCache(
		token.WithSafetyMargin(cfg.TokenSafetyMargin),
		token.WithLogger(logger),
		token.WithObserver(metrics.ObserveToken),
	)
}

func initERP(cfg *config.Config, tokens *token.Cache, logger *otelzap.Logger, tracer trace.Tracer) *erp.Client {
	return erp.New(erp.Config{
		TenantID:     cfg.BCTenantID,
		Environment:  cfg.BCEnvironment,
		CompanyID:    cfg.BCCompanyID,
		ClientID:     cfg.BCClientID,
		ClientSecret: cfg.BCClientSecret,
		Scope:        cfg.BCScope,
		BaseURL:      cfg.BCBaseURL,
		AuthURL:      cfg.BCAuthURL,
		APIPath:      cfg.BCAPIPath,
		UseMock:      cfg.BCUseMock,
	}, tokens, logger, tracer)
}

func initShipperRegistry(cfg *config.Config, tokens *token.Cache, logger *otelzap.Logger, tracer trace.Tracer) *shipper.Registry {
	registry := shipper.NewRegistry()

	registry.Register(ups.New(ups.Config{
		ClientID:      cfg.UPSClientID,
		ClientSecret:  cfg.UPSClientSecret,
		AccountNumber: cfg.UPSAccountNumber,
		BaseURL:       cfg.UPSBaseURL,
		Version:       cfg.UPSAPIVersion,
		Origin:        cfg.Origin(),
		LabelFormat:   shipper.LabelFormat(cfg.UPSLabelFormat),
		RateLimit:     cfg.UPSRateLimit,
		UseMock:       cfg.UPSUseMock,
	}, tokens, logger, tracer))

	return registry
}

// initPublisher connects to NATS when configured. It never returns nil.
func initPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return events.Nop{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return events.Nop{}, err
	}
	return pub, nil
}

func initWorkflow(store *erp.Client, registry *shipper.Registry, publisher events.Publisher, logger *otelzap.Logger) *workflow.Service {
	return workflow.New(store, registry, logger, workflow.WithPublisher(publisher))
}
