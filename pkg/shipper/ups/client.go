// Package ups provides integration with the UPS Shipping API.
package ups

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/shipscan/pkg/shipper"
	"github.com/tournevent/shipscan/pkg/token"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const carrierName = "ups"

const (
	requestSubVersion   = "1801"
	requestOption       = "nonvalidate"
	chargeTypeTransport = "01"
	packagingCustomer   = "02"
	labelUserAgent      = "Mozilla/4.5"
	unknownName         = "Unknown"
	noAddressLine       = "Address Not Provided"
	shipFromAttention   = "Shipping Department"
)

// Config holds UPS configuration.
type Config struct {
	ClientID      string
	ClientSecret  string
	AccountNumber string // Our shipper number, billed unless the receiver pays
	BaseURL       string
	Version       string
	Origin        shipper.Address // Warehouse address printed as shipper and ship-from
	LabelFormat   shipper.LabelFormat
	RateLimit     float64
	UseMock       bool // When true, uses mock API client
}

// Client is the UPS shipper client.
// It implements the shipper.Shipper interface and delegates
// API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new UPS client.
// If cfg.UseMock is true, it uses a mock API client for testing.
// Otherwise, it uses the real HTTP API client authenticated through tokens.
func New(cfg Config, tokens *token.Cache, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:      cfg.BaseURL,
			Version:      cfg.Version,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Timeout:      30 * time.Second,
			RateLimit:    cfg.RateLimit,
		}, tokens)
	}

	return NewWithAPIClient(cfg, apiClient, logger, tracer)
}

// NewWithAPIClient creates a new UPS client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(carrierName)
	}
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

// Warm obtains a carrier token when the API client needs one.
func (c *Client) Warm(ctx context.Context) error {
	w, ok := c.apiClient.(interface{ Warm(context.Context) error })
	if !ok {
		return nil
	}
	return w.Warm(ctx)
}

// ServiceFor previews the service CreateLabel would use.
func (c *Client) ServiceFor(dest shipper.Destination, method string) shipper.ServiceSelection {
	return ResolveService(dest, method)
}

// CreateLabel creates a UPS shipment and returns its label. The service is
// chosen by ResolveService from the ship-to address and the requested
// method.
func (c *Client) CreateLabel(ctx context.Context, req *shipper.LabelRequest) (*shipper.Label, error) {
	if err := req.Package.Validate(); err != nil {
		return nil, err
	}

	service := ResolveService(req.ShipTo.Destination(), req.RequestedMethod)

	ctx, span := c.tracer.Start(ctx, "ups.CreateLabel", trace.WithAttributes(
		attribute.String("shipment.reference", req.Reference),
		attribute.String("ups.service_code", service.Code),
	))
	defer span.End()

	c.logger.Ctx(ctx).Info("Creating UPS shipment",
		zap.String("reference", req.Reference),
		zap.String("requested_method", req.RequestedMethod),
		zap.String("service_code", service.Code),
		zap.String("destination_state", req.ShipTo.StateCode),
		zap.String("destination_country", req.ShipTo.CountryCode),
	)

	apiReq := c.buildShipmentRequest(req, service)

	apiResp, err := c.apiClient.Ship(ctx, apiReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ship failed")
		c.logger.Ctx(ctx).Error("UPS API error", zap.String("reference", req.Reference), zap.Error(err))
		return nil, toShipperError(err)
	}

	label, err := shipmentResponseToLabel(apiResp, service)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no label")
		return nil, err
	}
	if label.Format == "" {
		label.Format = c.labelFormat(req)
	}

	span.SetAttributes(attribute.String("ups.tracking_number", label.TrackingNumber))
	c.logger.Ctx(ctx).Info("UPS shipment created",
		zap.String("reference", req.Reference),
		zap.String("tracking_number", label.TrackingNumber),
		zap.String("total_charge", fmt.Sprintf("%.2f %s", label.TotalCharge.Amount, label.TotalCharge.Currency)),
	)

	return label, nil
}

// VoidShipment cancels a UPS shipment.
func (c *Client) VoidShipment(ctx context.Context, req *shipper.VoidRequest) (*shipper.VoidResponse, error) {
	ctx, span := c.tracer.Start(ctx, "ups.VoidShipment", trace.WithAttributes(
		attribute.String("ups.shipment_id", req.ShipmentID),
	))
	defer span.End()

	c.logger.Ctx(ctx).Info("Voiding UPS shipment", zap.String("shipment_id", req.ShipmentID))

	apiResp, err := c.apiClient.Void(ctx, req.ShipmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "void failed")
		c.logger.Ctx(ctx).Error("UPS API error", zap.String("shipment_id", req.ShipmentID), zap.Error(err))
		return nil, toShipperError(err)
	}

	status := apiResp.SummaryResult.Status
	if status.Code != "1" {
		return nil, shipper.NewShipperError(carrierName, "VOID_REJECTED", status.Description).
			WithCause(shipper.ErrCancellationNotAllowed)
	}

	return &shipper.VoidResponse{
		ShipmentID: req.ShipmentID,
		Status:     shipper.StatusCancelled,
		Message:    status.Description,
	}, nil
}

func (c *Client) labelFormat(req *shipper.LabelRequest) shipper.LabelFormat {
	if req.Format != "" {
		return req.Format
	}
	if c.config.LabelFormat != "" {
		return c.config.LabelFormat
	}
	return shipper.LabelGIF
}

// ============================================================================
// Conversion helpers: Shipper models -> API models
// ============================================================================

func (c *Client) buildShipmentRequest(req *shipper.LabelRequest, service shipper.ServiceSelection) *ShipmentRequest {
	origin := c.config.Origin

	description := req.Description
	if description == "" {
		description = "Shipment " + req.Reference
	}
	packageDescription := req.Package.Description
	if packageDescription == "" {
		packageDescription = "Package for " + req.Reference
	}

	var phone *Phone
	if origin.Phone != "" {
		phone = &Phone{Number: origin.Phone}
	}

	return &ShipmentRequest{
		Request: RequestInfo{
			SubVersion:           requestSubVersion,
			RequestOption:        requestOption,
			TransactionReference: TransactionReference{CustomerContext: req.Reference},
		},
		Shipment: Shipment{
			Description: description,
			Shipper: Party{
				Name:          origin.Name,
				AttentionName: origin.AttentionName,
				ShipperNumber: c.config.AccountNumber,
				Phone:         phone,
				Address:       addressToAPI(origin),
			},
			ShipTo: shipToParty(req.ShipTo),
			ShipFrom: Party{
				Name:          origin.Name,
				AttentionName: shipFromAttention,
				Phone:         phone,
				FaxNumber:     origin.Phone,
				Address:       addressToAPI(origin),
			},
			PaymentInformation: c.paymentInformation(req),
			Service:            CodeDescription{Code: service.Code, Description: service.Description},
			Package: Package{
				Description: packageDescription,
				Packaging:   CodeDescription{Code: packagingCustomer, Description: "Customer Supplied Package"},
				Dimensions: Dimensions{
					UnitOfMeasurement: CodeDescription{Code: "IN", Description: "Inches"},
					Length:            formatDecimal(req.Package.Length),
					Width:             formatDecimal(req.Package.Width),
					Height:            formatDecimal(req.Package.Height),
				},
				PackageWeight: PackageWeight{
					UnitOfMeasurement: CodeDescription{Code: "LBS", Description: "Pounds"},
					Weight:            formatDecimal(req.Package.Weight),
				},
			},
		},
		LabelSpecification: LabelSpecification{
			LabelImageFormat: CodeDescription{Code: string(c.labelFormat(req))},
			HTTPUserAgent:    labelUserAgent,
		},
	}
}

// paymentInformation bills the receiver when the shipment carries a
// customer account other than ours, and bills us otherwise.
func (c *Client) paymentInformation(req *shipper.LabelRequest) PaymentInformation {
	receiver := strings.TrimSpace(req.BillToAccount)
	if receiver != "" && !strings.EqualFold(receiver, strings.TrimSpace(c.config.AccountNumber)) {
		return PaymentInformation{ShipmentCharge: ShipmentCharge{
			Type: chargeTypeTransport,
			BillReceiver: &BillReceiver{
				AccountNumber: receiver,
				Address:       Address{PostalCode: req.ShipTo.PostalCode},
			},
		}}
	}
	return PaymentInformation{ShipmentCharge: ShipmentCharge{
		Type:        chargeTypeTransport,
		BillShipper: &BillShipper{AccountNumber: c.config.AccountNumber},
	}}
}

func shipToParty(addr shipper.Address) Party {
	name := strings.TrimSpace(addr.Name)
	if name == "" {
		name = unknownName
	}
	attention := strings.TrimSpace(addr.AttentionName)
	if attention == "" {
		attention = name
	}

	apiAddr := addressToAPI(addr)
	if len(apiAddr.AddressLine) == 0 {
		apiAddr.AddressLine = []string{noAddressLine}
	}

	var phone *Phone
	if addr.Phone != "" {
		phone = &Phone{Number: addr.Phone}
	}

	return Party{
		Name:          name,
		AttentionName: attention,
		Phone:         phone,
		Address:       apiAddr,
	}
}

func addressToAPI(addr shipper.Address) Address {
	return Address{
		AddressLine:       addr.Lines(),
		City:              addr.City,
		StateProvinceCode: addr.StateCode,
		PostalCode:        addr.PostalCode,
		CountryCode:       addr.CountryCode,
	}
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ============================================================================
// Conversion helpers: API models -> Shipper models
// ============================================================================

func shipmentResponseToLabel(resp *ShipmentResponse, service shipper.ServiceSelection) (*shipper.Label, error) {
	results := resp.ShipmentResults
	if len(results.PackageResults) == 0 || results.PackageResults[0].ShippingLabel.GraphicImage == "" {
		return nil, shipper.NewShipperError(carrierName, "NO_LABEL", "response carried no label image").
			WithCause(shipper.ErrLabelNotAvailable)
	}
	pkg := results.PackageResults[0]

	label := &shipper.Label{
		Carrier:              carrierName,
		TrackingNumber:       pkg.TrackingNumber,
		ShipmentID:           results.ShipmentIdentificationNumber,
		Service:              service,
		Format:               shipper.LabelFormat(pkg.ShippingLabel.ImageFormat.Code),
		Data:                 pkg.ShippingLabel.GraphicImage,
		BaseServiceCharge:    chargeToMoney(pkg.BaseServiceCharge),
		ServiceOptionsCharge: chargeToMoney(pkg.ServiceOptionsCharges),
		CustomerContext:      resp.Response.TransactionReference.CustomerContext,
	}
	if label.ShipmentID == "" {
		label.ShipmentID = pkg.TrackingNumber
	}
	if results.BillingWeight != nil {
		label.BillingWeight = results.BillingWeight.Weight
		label.BillingWeightUnit = results.BillingWeight.UnitOfMeasurement.Code
	}
	if results.ShipmentCharges != nil {
		label.TotalCharge = chargeToMoney(&results.ShipmentCharges.TotalCharges)
	}
	return label, nil
}

func chargeToMoney(ch *Charge) shipper.Money {
	if ch == nil {
		return shipper.Money{}
	}
	amount, _ := strconv.ParseFloat(strings.TrimSpace(ch.MonetaryValue), 64)
	return shipper.Money{Amount: amount, Currency: ch.CurrencyCode}
}

// toShipperError maps API failures onto shipper errors. Authentication
// errors and context errors pass through unchanged.
func toShipperError(err error) error {
	var authErr *token.AuthenticationError
	if errors.As(err, &authErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return shipper.NewShipperError(carrierName, "NETWORK_ERROR", "request to UPS failed").
			WithCause(err).WithRetryable(true)
	}

	se := shipper.NewShipperError(carrierName, apiErr.Code, apiErr.Message).WithStatusCode(apiErr.StatusCode)
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		se.WithCause(shipper.ErrAuthenticationFailed)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		se.WithCause(shipper.ErrRateLimitExceeded).WithRetryable(true)
	case apiErr.StatusCode >= http.StatusInternalServerError:
		se.WithCause(shipper.ErrServiceUnavailable).WithRetryable(true)
	case apiErr.StatusCode == http.StatusNotFound:
		se.WithCause(shipper.ErrShipmentNotFound)
	case apiErr.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "address"):
		se.WithCause(shipper.ErrInvalidAddress)
	}
	return se
}

// Ensure Client implements shipper.Shipper interface
var _ shipper.Shipper = (*Client)(nil)
