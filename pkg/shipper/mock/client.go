// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/shipscan/pkg/shipper"
)

// Client is a mock shipper for testing.
type Client struct {
	name string

	mu       sync.Mutex
	requests []shipper.LabelRequest

	// OnCreateLabel overrides the default label when set.
	OnCreateLabel func(ctx context.Context, req *shipper.LabelRequest) (*shipper.Label, error)
}

// New creates a new mock shipper.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// Requests returns a copy of every label request received so far.
func (c *Client) Requests() []shipper.LabelRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]shipper.LabelRequest(nil), c.requests...)
}

// CreateLabel returns a mock label.
func (c *Client) CreateLabel(ctx context.Context, req *shipper.LabelRequest) (*shipper.Label, error) {
	c.mu.Lock()
	c.requests = append(c.requests, *req)
	c.mu.Unlock()

	if c.OnCreateLabel != nil {
		return c.OnCreateLabel(ctx, req)
	}

	format := req.Format
	if format == "" {
		format = shipper.LabelGIF
	}
	trackingNumber := "1Z" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:16])

	return &shipper.Label{
		Carrier:           c.name,
		TrackingNumber:    trackingNumber,
		ShipmentID:        trackingNumber,
		Service:           shipper.ServiceSelection{Code: "03", Description: "Mock Ground"},
		Format:            format,
		Data:              base64.StdEncoding.EncodeToString([]byte("GIF89a mock label")),
		BillingWeight:     fmt.Sprintf("%.1f", req.Package.Weight),
		BillingWeightUnit: "LBS",
		TotalCharge:       shipper.Money{Amount: 15.82, Currency: "USD"},
		CustomerContext:   req.Reference,
	}, nil
}

// VoidShipment voids a mock shipment.
func (c *Client) VoidShipment(ctx context.Context, req *shipper.VoidRequest) (*shipper.VoidResponse, error) {
	return &shipper.VoidResponse{
		ShipmentID: req.ShipmentID,
		Status:     shipper.StatusCancelled,
		Message:    fmt.Sprintf("voided at %s", time.Now().UTC().Format(time.RFC3339)),
	}, nil
}
