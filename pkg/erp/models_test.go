package erp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/shipscan/pkg/erp"
	"github.com/tournevent/shipscan/pkg/shipper"
)

func TestNormalizeETag(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`W/"JzQ0OzE7"`, `W/"JzQ0OzE7"`},
		{`"JzQ0OzE7"`, `W/"JzQ0OzE7"`},
		{`JzQ0OzE7`, `W/"JzQ0OzE7"`},
		{``, `*`},
		{`   `, `*`},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, erp.NormalizeETag(tt.raw))
		})
	}
}

func TestPackageDimensions_Validate(t *testing.T) {
	assert.NoError(t, erp.PackageDimensions{Height: 6, Width: 8, Depth: 12, Weight: 4.5}.Validate())

	err := erp.PackageDimensions{Height: 6, Width: 0, Depth: 12, Weight: -1}.Validate()
	assert.ErrorIs(t, err, shipper.ErrInvalidPackage)
	assert.Contains(t, err.Error(), "width, weight must be greater than 0")
}

func TestPackageDimensions_Package(t *testing.T) {
	pkg := erp.PackageDimensions{Height: 6, Width: 8, Depth: 12, Weight: 4.5}.Package()

	assert.Equal(t, 12.0, pkg.Length)
	assert.Equal(t, 8.0, pkg.Width)
	assert.Equal(t, 6.0, pkg.Height)
	assert.Equal(t, 4.5, pkg.Weight)
	assert.Equal(t, shipper.DimensionIN, pkg.DimensionUnit)
	assert.Equal(t, shipper.WeightLB, pkg.WeightUnit)
}

func TestShipment_Dimensions(t *testing.T) {
	full := &erp.Shipment{PackageLength: 12, PackageWidth: 8, PackageHeight: 6, PackageWeight: 4.5}
	dims, ok := full.Dimensions()
	assert.True(t, ok)
	assert.Equal(t, 12.0, dims.Depth)

	partial := &erp.Shipment{PackageLength: 12, PackageWidth: 8, PackageHeight: 6}
	_, ok = partial.Dimensions()
	assert.False(t, ok)
}

func TestShipment_Method(t *testing.T) {
	assert.Equal(t, "GROUND", (&erp.Shipment{}).Method())
	assert.Equal(t, "NEXT_DAY_AIR", (&erp.Shipment{ShipmentMethodCode: " NEXT_DAY_AIR "}).Method())
}

func TestShipment_FormattedAddress(t *testing.T) {
	s := &erp.Shipment{
		ShipToName:     "Acme Corp",
		ShipToName2:    "Receiving",
		ShipToAddress:  "1 Main St",
		ShipToAddress2: "Suite 2",
		ShipToCity:     "Honolulu",
		ShipToCounty:   "HI",
		ShipToPostCode: "96813",
		ShipToCountry:  "US",
	}
	assert.Equal(t, "Acme Corp\nReceiving\n1 Main St\nSuite 2\nHonolulu, HI 96813\nUS", s.FormattedAddress())

	sparse := &erp.Shipment{ShipToName: "Acme Corp", ShipToPostCode: "96813"}
	assert.Equal(t, "Acme Corp\n96813", sparse.FormattedAddress())

	assert.Empty(t, (&erp.Shipment{}).FormattedAddress())
}

func TestShipment_ShipTo(t *testing.T) {
	s := &erp.Shipment{
		ShipToName:     "Acme Corp",
		ShipToContact:  "Jane Doe",
		ShipToAddress:  "1 Main St",
		ShipToCity:     "San Juan",
		ShipToCounty:   "PR",
		ShipToPostCode: "00901",
		ShipToCountry:  "US",
	}

	addr := s.ShipTo()
	assert.Equal(t, "Acme Corp", addr.Name)
	assert.Equal(t, "Jane Doe", addr.AttentionName)
	assert.Equal(t, shipper.Destination{StateOrCounty: "PR", Country: "US"}, addr.Destination())
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status    int
		sentinel  error
		message   string
		retryable bool
	}{
		{401, erp.ErrUnauthorized, "authentication failed", false},
		{403, erp.ErrForbidden, "access forbidden", false},
		{404, erp.ErrShipmentNotFound, "shipment 'WS-1' not found", false},
		{400, erp.ErrBadRequest, "bad request: bad key", false},
		{412, erp.ErrConcurrentModification, "modified by another user", false},
		{500, erp.ErrServerError, "server error: bad key", true},
		{503, erp.ErrServerError, "server error", true},
	}

	for _, tt := range tests {
		err := &erp.APIError{StatusCode: tt.status, ShipmentNo: "WS-1", Details: "bad key"}
		assert.ErrorIs(t, err, tt.sentinel, "status %d", tt.status)
		assert.Contains(t, err.Error(), tt.message)
		assert.Equal(t, tt.retryable, err.Retryable())
	}

	other := &erp.APIError{StatusCode: 418, Details: "teapot"}
	assert.Equal(t, "erp: HTTP 418: teapot", other.Error())
	assert.NoError(t, other.Unwrap())
}
