package erp

import (
	"context"
)

// APIClient defines the interface for the ERP warehouse shipment API.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetShipment fetches a warehouse shipment by number
	GetShipment(ctx context.Context, shipmentNo string) (*Shipment, error)

	// PatchShipment updates a warehouse shipment guarded by If-Match.
	// The returned shipment is nil when the server answered 204.
	PatchShipment(ctx context.Context, shipmentNo, ifMatch string, patch *ShipmentPatch) (*Shipment, error)
}
