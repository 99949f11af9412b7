// Package shipper provides an abstraction layer for shipping carriers.
package shipper

import (
	"context"
)

// Shipper defines the interface that all shipping carriers must implement.
type Shipper interface {
	// Name returns the carrier identifier (e.g., "ups").
	Name() string

	// CreateLabel books a shipment with the carrier and returns its label.
	CreateLabel(ctx context.Context, req *LabelRequest) (*Label, error)

	// VoidShipment cancels a shipment that has not been picked up yet.
	VoidShipment(ctx context.Context, req *VoidRequest) (*VoidResponse, error)
}
