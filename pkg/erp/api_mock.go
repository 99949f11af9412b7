package erp

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// MockAPIClient is an in-memory implementation of APIClient for testing.
// Unknown shipment numbers are answered with a generated record, and every
// successful patch moves the record to a new ETag.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetShipment   func(ctx context.Context, shipmentNo string) (*Shipment, error)
	OnPatchShipment func(ctx context.Context, shipmentNo, ifMatch string, patch *ShipmentPatch) (*Shipment, error)

	mu        sync.Mutex
	shipments map[string]*Shipment
	versions  map[string]int
	patches   []ShipmentPatch
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{
		shipments: make(map[string]*Shipment),
		versions:  make(map[string]int),
	}
}

// Seed stores a shipment so later calls return it.
func (m *MockAPIClient) Seed(s Shipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ETag == "" {
		m.versions[s.No]++
		s.ETag = fmt.Sprintf(`W/"JzE7%d;"`, m.versions[s.No])
	}
	m.shipments[s.No] = &s
}

// Patches returns every patch applied so far.
func (m *MockAPIClient) Patches() []ShipmentPatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ShipmentPatch(nil), m.patches...)
}

// GetShipment returns the stored or a generated shipment.
func (m *MockAPIClient) GetShipment(ctx context.Context, shipmentNo string) (*Shipment, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: http.StatusInternalServerError, ShipmentNo: shipmentNo, Details: "simulated API error"}
	}

	if m.OnGetShipment != nil {
		return m.OnGetShipment(ctx, shipmentNo)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shipments[shipmentNo]
	if !ok {
		m.versions[shipmentNo] = 1
		s = &Shipment{
			ODataContext:       "$metadata#companies/warehousesshipments/$entity",
			ETag:               `W/"JzE7MTsn"`,
			No:                 shipmentNo,
			LocationCode:       "MAIN",
			ExternalDocumentNo: "PO-" + shipmentNo,
			ShipToName:         "Mock Customer",
			ShipToAddress:      "1 Market St",
			ShipToCity:         "San Francisco",
			ShipToCounty:       "CA",
			ShipToPostCode:     "94105",
			ShipToCountry:      "US",
			ShipToContact:      "Receiving",
		}
		m.shipments[shipmentNo] = s
	}

	out := *s
	return &out, nil
}

// PatchShipment applies a patch when ifMatch matches the current ETag.
func (m *MockAPIClient) PatchShipment(ctx context.Context, shipmentNo, ifMatch string, patch *ShipmentPatch) (*Shipment, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{StatusCode: http.StatusInternalServerError, ShipmentNo: shipmentNo, Details: "simulated API error"}
	}

	if m.OnPatchShipment != nil {
		return m.OnPatchShipment(ctx, shipmentNo, ifMatch, patch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shipments[shipmentNo]
	if !ok {
		return nil, &APIError{StatusCode: http.StatusNotFound, ShipmentNo: shipmentNo}
	}
	if ifMatch != "*" && ifMatch != NormalizeETag(s.ETag) {
		return nil, &APIError{StatusCode: http.StatusPreconditionFailed, ShipmentNo: shipmentNo, Details: "etag mismatch"}
	}

	if patch.PackageLength > 0 {
		s.PackageLength = patch.PackageLength
	}
	if patch.PackageWidth > 0 {
		s.PackageWidth = patch.PackageWidth
	}
	if patch.PackageHeight > 0 {
		s.PackageHeight = patch.PackageHeight
	}
	if patch.PackageWeight > 0 {
		s.PackageWeight = patch.PackageWeight
	}
	s.PackageTrackingNo = patch.PackageTrackingNo

	m.versions[shipmentNo]++
	s.ETag = fmt.Sprintf(`W/"JzE7%d;"`, m.versions[shipmentNo])
	m.patches = append(m.patches, *patch)

	out := *s
	return &out, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
