package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipscan/pkg/erp"
	"github.com/tournevent/shipscan/pkg/shipper"
	"github.com/tournevent/shipscan/pkg/token"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&erp.APIError{StatusCode: 404, ShipmentNo: "WS-1"}, CodeNotFound},
		{shipper.NewShipperError("ups", "NOT_FOUND", "gone").WithCause(shipper.ErrShipmentNotFound), CodeNotFound},
		{&erp.APIError{StatusCode: 412}, CodeConflict},
		{&token.AuthenticationError{Service: token.ServiceCarrier, StatusCode: 401}, CodeUnauthenticated},
		{&erp.APIError{StatusCode: 403}, CodeUnauthenticated},
		{erp.ErrInvalidShipmentNo, CodeBadUserInput},
		{fmt.Errorf("%w: pigeon", shipper.ErrCarrierNotFound), CodeBadUserInput},
		{&erp.APIError{StatusCode: 503}, CodeUpstream},
		{errors.New("boom"), CodeUpstream},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorCode(tt.err), tt.err.Error())
	}
}

func TestFloatArg(t *testing.T) {
	args := map[string]interface{}{
		"f":   4.5,
		"i":   int64(6),
		"n":   json.Number("7.25"),
		"s":   " 8 ",
		"bad": true,
	}

	for name, want := range map[string]float64{"f": 4.5, "i": 6, "n": 7.25, "s": 8, "missing": 0} {
		got, err := floatArg(args, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := floatArg(args, "bad")
	assert.ErrorIs(t, err, errBadInput)
}

func TestParseLabelInput_MissingDimensions(t *testing.T) {
	_, err := parseLabelInput(map[string]interface{}{
		"input": map[string]interface{}{"shipmentNo": "WS-1"},
	})
	assert.ErrorIs(t, err, errBadInput)

	_, err = parseLabelInput(map[string]interface{}{})
	assert.ErrorIs(t, err, errBadInput)
}

func TestShipmentToGraphQL(t *testing.T) {
	s := &erp.Shipment{
		No:                "WS-1",
		ETag:              `W/"x"`,
		PackageTrackingNo: "1Z",
		ShipToName:        "Acme",
		ShipToCounty:      "NV",
		PackageLength:     12,
		PackageWidth:      8,
		PackageHeight:     6,
		PackageWeight:     3,
	}

	out := shipmentToGraphQL(s)

	assert.Equal(t, "1Z", out.TrackingNumber)
	assert.Equal(t, "GROUND", out.Method)
	assert.Equal(t, "NV", out.ShipTo.State)
	require.NotNil(t, out.Dimensions)
	assert.Equal(t, 12.0, out.Dimensions.Depth)
	assert.Nil(t, out.Service)
}
