package ups

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnShip func(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
	OnVoid func(ctx context.Context, shipmentID string) (*VoidResponse, error)

	mu          sync.Mutex
	lastRequest *ShipmentRequest
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// LastRequest returns the most recent ShipmentRequest passed to Ship.
func (m *MockAPIClient) LastRequest() *ShipmentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Ship returns a mock shipment with a single package result.
func (m *MockAPIClient) Ship(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	m.mu.Lock()
	m.lastRequest = req
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnShip != nil {
		return m.OnShip(ctx, req)
	}

	trackingNumber := "1Z" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:16])
	format := req.LabelSpecification.LabelImageFormat.Code
	if format == "" {
		format = "GIF"
	}

	return &ShipmentResponse{
		Response: ResponseInfo{
			ResponseStatus:       CodeDescription{Code: "1", Description: "Success"},
			TransactionReference: req.Request.TransactionReference,
		},
		ShipmentResults: ShipmentResults{
			ShipmentCharges: &ShipmentCharges{
				TotalCharges: Charge{CurrencyCode: "USD", MonetaryValue: "15.82"},
			},
			BillingWeight: &BillingWeight{
				UnitOfMeasurement: CodeDescription{Code: "LBS", Description: "Pounds"},
				Weight:            req.Shipment.Package.PackageWeight.Weight,
			},
			ShipmentIdentificationNumber: trackingNumber,
			PackageResults: PackageResultList{
				{
					TrackingNumber:        trackingNumber,
					BaseServiceCharge:     &Charge{CurrencyCode: "USD", MonetaryValue: "15.82"},
					ServiceOptionsCharges: &Charge{CurrencyCode: "USD", MonetaryValue: "0.00"},
					ShippingLabel: ShippingLabel{
						ImageFormat:  CodeDescription{Code: format},
						GraphicImage: base64.StdEncoding.EncodeToString([]byte("GIF89a mock label " + trackingNumber)),
					},
				},
			},
		},
	}, nil
}

// Void returns a successful mock void.
func (m *MockAPIClient) Void(ctx context.Context, shipmentID string) (*VoidResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnVoid != nil {
		return m.OnVoid(ctx, shipmentID)
	}

	resp := &VoidResponse{
		Response: ResponseInfo{ResponseStatus: CodeDescription{Code: "1", Description: "Success"}},
	}
	resp.SummaryResult.Status = CodeDescription{Code: "1", Description: "Voided"}
	return resp, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
