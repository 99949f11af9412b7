// Package erp provides integration with the Business Central warehouse
// shipment API.
package erp

import (
	"context"
	"fmt"
	"strings"

	"github.com/tournevent/shipscan/pkg/token"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Config holds ERP configuration.
type Config struct {
	TenantID     string
	Environment  string
	CompanyID    string
	ClientID     string
	ClientSecret string
	Scope        string
	BaseURL      string
	AuthURL      string
	APIPath      string
	UseMock      bool // When true, uses mock API client
}

// Client reads warehouse shipments and writes tracking numbers back.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new ERP client.
// If cfg.UseMock is true, it uses an in-memory mock API client.
// Otherwise, it uses the real HTTP API client authenticated through tokens.
func New(cfg Config, tokens *token.Cache, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:      cfg.BaseURL,
			AuthURL:      cfg.AuthURL,
			TenantID:     cfg.TenantID,
			Environment:  cfg.Environment,
			CompanyID:    cfg.CompanyID,
			APIPath:      cfg.APIPath,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scope:        cfg.Scope,
		}, tokens)
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new ERP client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("erp")
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Warm obtains an ERP token when the API client needs one.
func (c *Client) Warm(ctx context.Context) error {
	w, ok := c.apiClient.(interface{ Warm(context.Context) error })
	if !ok {
		return nil
	}
	return w.Warm(ctx)
}

// GetShipment fetches a warehouse shipment by its scanned number.
func (c *Client) GetShipment(ctx context.Context, shipmentNo string) (*Shipment, error) {
	shipmentNo = strings.TrimSpace(shipmentNo)
	if shipmentNo == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidShipmentNo)
	}

	ctx, span := c.tracer.Start(ctx, "erp.GetShipment", trace.WithAttributes(
		attribute.String("shipment.no", shipmentNo),
	))
	defer span.End()

	c.logger.Ctx(ctx).Info("Fetching warehouse shipment", zap.String("shipment_no", shipmentNo))

	shipment, err := c.apiClient.GetShipment(ctx, shipmentNo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get shipment failed")
		c.logger.Ctx(ctx).Error("ERP API error", zap.String("shipment_no", shipmentNo), zap.Error(err))
		return nil, err
	}

	return shipment, nil
}

// TrackingUpdate is written back to the shipment once a label exists.
type TrackingUpdate struct {
	ShipmentNo     string
	TrackingNumber string
	// ETag is the version the caller read; empty means "any version".
	ETag       string
	Dimensions PackageDimensions
}

// UpdateTracking writes the tracking number and the measured dimensions to
// the shipment. A stale ETag yields ErrConcurrentModification.
func (c *Client) UpdateTracking(ctx context.Context, update TrackingUpdate) (*Shipment, error) {
	shipmentNo := strings.TrimSpace(update.ShipmentNo)
	if shipmentNo == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidShipmentNo)
	}
	trackingNumber := strings.TrimSpace(update.TrackingNumber)
	if trackingNumber == "" {
		return nil, ErrMissingTrackingNumber
	}

	ifMatch := NormalizeETag(update.ETag)

	ctx, span := c.tracer.Start(ctx, "erp.UpdateTracking", trace.WithAttributes(
		attribute.String("shipment.no", shipmentNo),
		attribute.String("shipment.tracking_number", trackingNumber),
	))
	defer span.End()

	c.logger.Ctx(ctx).Info("Writing tracking number",
		zap.String("shipment_no", shipmentNo),
		zap.String("tracking_number", trackingNumber),
		zap.String("if_match", ifMatch),
	)

	patch := &ShipmentPatch{
		PackageLength:     update.Dimensions.Depth,
		PackageWidth:      update.Dimensions.Width,
		PackageHeight:     update.Dimensions.Height,
		PackageWeight:     update.Dimensions.Weight,
		PackageTrackingNo: trackingNumber,
	}

	updated, err := c.apiClient.PatchShipment(ctx, shipmentNo, ifMatch, patch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "patch shipment failed")
		c.logger.Ctx(ctx).Error("ERP API error", zap.String("shipment_no", shipmentNo), zap.Error(err))
		return nil, err
	}

	// 204 No Content carries no representation.
	if updated == nil {
		return c.apiClient.GetShipment(ctx, shipmentNo)
	}
	return updated, nil
}
