// Package workflow drives the scan, label and tracking steps of a warehouse
// shipment across the ERP and the carriers.
package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tournevent/shipscan/internal/events"
	"github.com/tournevent/shipscan/pkg/erp"
	"github.com/tournevent/shipscan/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCarrier is used when a label request names no carrier.
const DefaultCarrier = "ups"

// ShipmentStore reads and updates ERP warehouse shipments.
type ShipmentStore interface {
	GetShipment(ctx context.Context, shipmentNo string) (*erp.Shipment, error)
	UpdateTracking(ctx context.Context, update erp.TrackingUpdate) (*erp.Shipment, error)
}

// Warmer is implemented by upstream clients that can authenticate ahead of
// the first request.
type Warmer interface {
	Warm(ctx context.Context) error
}

type servicePreviewer interface {
	ServiceFor(dest shipper.Destination, method string) shipper.ServiceSelection
}

// Service coordinates the ERP, the carriers and event publication.
type Service struct {
	store          ShipmentStore
	carriers       *shipper.Registry
	publisher      events.Publisher
	logger         *otelzap.Logger
	defaultCarrier string
	now            func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher. The default discards events.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithDefaultCarrier overrides DefaultCarrier.
func WithDefaultCarrier(name string) Option {
	return func(s *Service) { s.defaultCarrier = name }
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(store ShipmentStore, carriers *shipper.Registry, logger *otelzap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	s := &Service{
		store:          store,
		carriers:       carriers,
		publisher:      events.Nop{},
		logger:         logger,
		defaultCarrier: DefaultCarrier,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Warm authenticates against every upstream in parallel. Clients that need
// no token are skipped.
func (s *Service) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if w, ok := s.store.(Warmer); ok {
		g.Go(func() error { return w.Warm(ctx) })
	}
	for _, carrier := range s.carriers.All() {
		if w, ok := carrier.(Warmer); ok {
			g.Go(func() error { return w.Warm(ctx) })
		}
	}

	return g.Wait()
}

// ShipmentView is a scanned shipment prepared for the label screen.
type ShipmentView struct {
	Shipment *erp.Shipment
	// Dimensions is set only when the ERP record holds all four values.
	Dimensions       *erp.PackageDimensions
	FormattedAddress string
	Method           string
	// Service is the carrier service a label would use, when the default
	// carrier can tell in advance.
	Service *shipper.ServiceSelection
}

// LoadShipment fetches the shipment for a scanned barcode.
func (s *Service) LoadShipment(ctx context.Context, barcode string) (*ShipmentView, error) {
	shipment, err := s.store.GetShipment(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return nil, err
	}

	view := &ShipmentView{
		Shipment:         shipment,
		FormattedAddress: shipment.FormattedAddress(),
		Method:           shipment.Method(),
	}
	if dims, ok := shipment.Dimensions(); ok {
		view.Dimensions = &dims
	}
	if carrier, err := s.carriers.Get(s.defaultCarrier); err == nil {
		if p, ok := carrier.(servicePreviewer); ok {
			svc := p.ServiceFor(shipment.ShipTo().Destination(), view.Method)
			view.Service = &svc
		}
	}

	return view, nil
}

// LabelInput is a label request from the scanner.
type LabelInput struct {
	ShipmentNo string
	Dimensions erp.PackageDimensions
	// Carrier defaults to the service's default carrier.
	Carrier string
	// Method overrides the shipment method stored in the ERP.
	Method string
}

// LabelResult is a created label together with the shipment it was made for.
type LabelResult struct {
	Label    *shipper.Label
	Shipment *erp.Shipment
}

// CreateLabel validates the dimensions, reloads the shipment and asks the
// carrier for a label. Tracking is not written back; see RecordTracking.
func (s *Service) CreateLabel(ctx context.Context, in LabelInput) (*LabelResult, error) {
	if err := in.Dimensions.Validate(); err != nil {
		return nil, err
	}

	carrierName := strings.TrimSpace(in.Carrier)
	if carrierName == "" {
		carrierName = s.defaultCarrier
	}
	carrier, err := s.carriers.Get(strings.ToLower(carrierName))
	if err != nil {
		return nil, err
	}

	shipment, err := s.store.GetShipment(ctx, strings.TrimSpace(in.ShipmentNo))
	if err != nil {
		return nil, err
	}

	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = shipment.Method()
	}

	pkg := in.Dimensions.Package()
	label, err := carrier.CreateLabel(ctx, &shipper.LabelRequest{
		Reference:       shipment.No,
		ShipTo:          shipment.ShipTo(),
		Package:         pkg,
		RequestedMethod: method,
		BillToAccount:   shipment.AgentAccount,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Ctx(ctx).Info("Label created",
		zap.String("shipment_no", shipment.No),
		zap.String("carrier", carrier.Name()),
		zap.String("tracking_number", label.TrackingNumber),
		zap.String("service_code", label.Service.Code),
	)

	evt := events.LabelCreated{
		ShipmentNo:     shipment.No,
		Carrier:        carrier.Name(),
		TrackingNumber: label.TrackingNumber,
		ShipmentID:     label.ShipmentID,
		ServiceCode:    label.Service.Code,
		TotalCharge:    label.TotalCharge.Amount,
		Currency:       label.TotalCharge.Currency,
		CreatedAt:      s.now().UTC(),
	}
	// The label exists at the carrier either way; a lost event must not
	// hide it from the scanner.
	if err := s.publisher.PublishLabelCreated(ctx, evt); err != nil {
		s.logger.Ctx(ctx).Warn("Failed to publish label event",
			zap.String("shipment_no", shipment.No),
			zap.Error(err),
		)
	}

	return &LabelResult{Label: label, Shipment: shipment}, nil
}

// TrackingInput writes a tracking number back to the ERP.
type TrackingInput struct {
	ShipmentNo     string
	TrackingNumber string
	// ETag is the version read with the shipment. When empty the current
	// version is fetched first.
	ETag       string
	Dimensions *erp.PackageDimensions
}

// RecordTracking stores the tracking number and measured dimensions on the
// ERP shipment.
func (s *Service) RecordTracking(ctx context.Context, in TrackingInput) (*erp.Shipment, error) {
	update := erp.TrackingUpdate{
		ShipmentNo:     strings.TrimSpace(in.ShipmentNo),
		TrackingNumber: strings.TrimSpace(in.TrackingNumber),
		ETag:           in.ETag,
	}
	if in.Dimensions != nil {
		if err := in.Dimensions.Validate(); err != nil {
			return nil, err
		}
		update.Dimensions = *in.Dimensions
	}

	if update.ETag == "" {
		current, err := s.store.GetShipment(ctx, update.ShipmentNo)
		if err != nil {
			return nil, err
		}
		update.ETag = current.ETag
	}

	updated, err := s.store.UpdateTracking(ctx, update)
	if err != nil {
		if errors.Is(err, erp.ErrConcurrentModification) {
			s.logger.Ctx(ctx).Warn("Shipment changed since it was read",
				zap.String("shipment_no", update.ShipmentNo),
			)
		}
		return nil, err
	}
	return updated, nil
}

// VoidLabel cancels a shipment at the carrier.
func (s *Service) VoidLabel(ctx context.Context, carrierName, shipmentID string) (*shipper.VoidResponse, error) {
	carrierName = strings.TrimSpace(carrierName)
	if carrierName == "" {
		carrierName = s.defaultCarrier
	}
	carrier, err := s.carriers.Get(strings.ToLower(carrierName))
	if err != nil {
		return nil, err
	}

	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return nil, shipper.NewShipperError(carrier.Name(), "INVALID_SHIPMENT_ID", "shipment id is required").
			WithCause(shipper.ErrShipmentNotFound)
	}

	return carrier.VoidShipment(ctx, &shipper.VoidRequest{ShipmentID: shipmentID})
}
