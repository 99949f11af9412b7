package shipper

import (
	"strings"
)

// ShipmentStatus represents the normalized status of a carrier shipment.
type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "pending"
	StatusConfirmed ShipmentStatus = "confirmed"
	StatusCancelled ShipmentStatus = "cancelled"
)

// WeightUnit represents weight measurement unit.
type WeightUnit string

const (
	WeightKG WeightUnit = "kg"
	WeightLB WeightUnit = "lb"
)

// DimensionUnit represents dimension measurement unit.
type DimensionUnit string

const (
	DimensionCM DimensionUnit = "cm"
	DimensionIN DimensionUnit = "in"
)

// LabelFormat is the image format of a shipping label as understood by the
// carrier.
type LabelFormat string

const (
	LabelGIF LabelFormat = "GIF"
	LabelPNG LabelFormat = "PNG"
	LabelZPL LabelFormat = "ZPL"
	LabelEPL LabelFormat = "EPL"
)

// Address represents a shipping address.
type Address struct {
	Name          string
	AttentionName string
	Line1         string
	Line2         string
	City          string
	StateCode     string // e.g., "CA", "HI", "PR"
	PostalCode    string
	CountryCode   string // ISO 3166-1 alpha-2, e.g., "US"
	Phone         string
}

// Lines returns the non-empty street lines.
func (a Address) Lines() []string {
	lines := make([]string, 0, 2)
	if a.Line1 != "" {
		lines = append(lines, a.Line1)
	}
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	return lines
}

// Destination is the part of an address that decides which carrier service
// can be used.
type Destination struct {
	StateOrCounty string
	// Country is empty for domestic shipments.
	Country string
}

// Destination extracts the service-relevant part of the address.
func (a Address) Destination() Destination {
	return Destination{StateOrCounty: a.StateCode, Country: a.CountryCode}
}

// ServiceSelection is a carrier service code with its human-readable name.
type ServiceSelection struct {
	Code        string
	Description string
}

// Package represents a package to be shipped.
type Package struct {
	Length        float64
	Width         float64
	Height        float64
	DimensionUnit DimensionUnit
	Weight        float64
	WeightUnit    WeightUnit
	Description   string
}

// Validate checks that every dimension and the weight are positive.
func (p Package) Validate() error {
	var missing []string
	if p.Height <= 0 {
		missing = append(missing, "height")
	}
	if p.Width <= 0 {
		missing = append(missing, "width")
	}
	if p.Length <= 0 {
		missing = append(missing, "length")
	}
	if p.Weight <= 0 {
		missing = append(missing, "weight")
	}
	if len(missing) > 0 {
		return NewShipperError("", "INVALID_PACKAGE",
			strings.Join(missing, ", ")+" must be greater than 0").WithCause(ErrInvalidPackage)
	}
	return nil
}

// Money represents a monetary amount.
type Money struct {
	Amount   float64
	Currency string
}

// ============================================================================
// Request/Response Types
// ============================================================================

// LabelRequest is the request for creating a shipment and its label.
type LabelRequest struct {
	// Reference is echoed back by the carrier; the ERP shipment number.
	Reference   string
	Description string
	ShipTo      Address
	Package     Package
	// RequestedMethod is the ERP shipment method code, e.g. "GROUND".
	RequestedMethod string
	// BillToAccount is the receiver's carrier account. When set and
	// different from ours, the receiver is billed.
	BillToAccount string
	Format        LabelFormat
}

// Label is the carrier's answer to a LabelRequest.
type Label struct {
	Carrier              string
	TrackingNumber       string
	ShipmentID           string
	Service              ServiceSelection
	Format               LabelFormat
	Data                 string // Base64 encoded image
	BillingWeight        string
	BillingWeightUnit    string
	BaseServiceCharge    Money
	ServiceOptionsCharge Money
	TotalCharge          Money
	CustomerContext      string
}

// VoidRequest is the request for voiding a shipment.
type VoidRequest struct {
	ShipmentID string
}

// VoidResponse is the response from voiding a shipment.
type VoidResponse struct {
	ShipmentID string
	Status     ShipmentStatus
	Message    string
}
