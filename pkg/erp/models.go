package erp

import (
	"strings"

	"github.com/tournevent/shipscan/pkg/shipper"
)

// DefaultShipmentMethod is used when a warehouse shipment carries no
// shipment method code.
const DefaultShipmentMethod = "GROUND"

// Shipment is a warehouse shipment as exposed by the integration API page.
type Shipment struct {
	ODataContext string `json:"@odata.context,omitempty"`
	ETag         string `json:"@odata.etag,omitempty"`

	No                   string `json:"no"`
	LocationCode         string `json:"locationCode"`
	AssignedUserID       string `json:"assignedUserId"`
	ExternalDocumentNo   string `json:"ExternalDocumentNo"`
	PackageTrackingNo    string `json:"PackageTrackingNo"`
	AgentAccount         string `json:"agentAccount"` // customer's own UPS account
	ShippingInstructions string `json:"shippingInstructionsText"`
	ShipmentMethodCode   string `json:"shipmentMethodCode,omitempty"`

	PackageLength float64 `json:"packageLength"`
	PackageWidth  float64 `json:"packageWidth"`
	PackageHeight float64 `json:"packageHeight"`
	PackageWeight float64 `json:"packageWeight"`

	ShipToName     string `json:"shipToName"`
	ShipToName2    string `json:"shipToName2"`
	ShipToAddress  string `json:"shipToAddress"`
	ShipToAddress2 string `json:"shipToAddress2"`
	ShipToCity     string `json:"shipToCity"`
	ShipToCounty   string `json:"shipToCounty"` // state or province
	ShipToPostCode string `json:"shipToPostCode"`
	ShipToCountry  string `json:"shipToCountry"`
	ShipToContact  string `json:"shipToContact"`
}

// Method returns the shipment method code, GROUND when empty.
func (s *Shipment) Method() string {
	if m := strings.TrimSpace(s.ShipmentMethodCode); m != "" {
		return m
	}
	return DefaultShipmentMethod
}

// Dimensions returns the stored package dimensions. ok is false unless all
// four values are positive.
func (s *Shipment) Dimensions() (dims PackageDimensions, ok bool) {
	dims = PackageDimensions{
		Height: s.PackageHeight,
		Width:  s.PackageWidth,
		Depth:  s.PackageLength,
		Weight: s.PackageWeight,
	}
	return dims, dims.Validate() == nil
}

// ShipTo converts the ship-to block into a carrier address.
func (s *Shipment) ShipTo() shipper.Address {
	return shipper.Address{
		Name:          s.ShipToName,
		AttentionName: s.ShipToContact,
		Line1:         s.ShipToAddress,
		Line2:         s.ShipToAddress2,
		City:          s.ShipToCity,
		StateCode:     s.ShipToCounty,
		PostalCode:    s.ShipToPostCode,
		CountryCode:   s.ShipToCountry,
	}
}

// FormattedAddress renders the ship-to block one line per part, skipping
// empty parts.
func (s *Shipment) FormattedAddress() string {
	var lines []string
	add := func(v string) {
		if v = strings.TrimSpace(v); v != "" {
			lines = append(lines, v)
		}
	}

	add(s.ShipToName)
	add(s.ShipToName2)
	add(s.ShipToAddress)
	add(s.ShipToAddress2)

	cityLine := strings.TrimSpace(s.ShipToCity)
	if county := strings.TrimSpace(s.ShipToCounty); county != "" {
		if cityLine != "" {
			cityLine += ", "
		}
		cityLine += county
	}
	if postCode := strings.TrimSpace(s.ShipToPostCode); postCode != "" {
		if cityLine != "" {
			cityLine += " "
		}
		cityLine += postCode
	}
	add(cityLine)
	add(s.ShipToCountry)

	return strings.Join(lines, "\n")
}

// PackageDimensions are measured at the scanner in inches and pounds.
// Depth is the package length.
type PackageDimensions struct {
	Height float64
	Width  float64
	Depth  float64
	Weight float64
}

// Package converts the dimensions into a carrier package.
func (d PackageDimensions) Package() shipper.Package {
	return shipper.Package{
		Length:        d.Depth,
		Width:         d.Width,
		Height:        d.Height,
		DimensionUnit: shipper.DimensionIN,
		Weight:        d.Weight,
		WeightUnit:    shipper.WeightLB,
	}
}

// Validate requires every value to be greater than zero.
func (d PackageDimensions) Validate() error {
	return d.Package().Validate()
}

// ShipmentPatch is the body of the tracking write-back. Zero dimensions are
// left out so stored values are not overwritten.
type ShipmentPatch struct {
	PackageLength     float64 `json:"packageLength,omitempty"`
	PackageWidth      float64 `json:"packageWidth,omitempty"`
	PackageHeight     float64 `json:"packageHeight,omitempty"`
	PackageWeight     float64 `json:"packageWeight,omitempty"`
	PackageTrackingNo string  `json:"PackageTrackingNo"`
}

// NormalizeETag converts an OData ETag into the weak form expected in
// If-Match. An empty value becomes "*", matching any version.
func NormalizeETag(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return "*"
	case strings.HasPrefix(raw, `W/"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 4:
		return raw
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		return `W/` + raw
	default:
		return `W/"` + raw + `"`
	}
}
