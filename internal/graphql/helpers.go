package graphql

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tournevent/shipscan/internal/workflow"
	"github.com/tournevent/shipscan/pkg/erp"
	"github.com/tournevent/shipscan/pkg/shipper"
	"github.com/tournevent/shipscan/pkg/token"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Error codes reported in extensions.code.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeValidation      = "GRAPHQL_VALIDATION_FAILED"
)

// errorCode classifies a resolver error for clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, erp.ErrShipmentNotFound),
		errors.Is(err, shipper.ErrShipmentNotFound):
		return CodeNotFound
	case errors.Is(err, erp.ErrConcurrentModification):
		return CodeConflict
	case errors.Is(err, token.ErrAuthentication),
		errors.Is(err, erp.ErrUnauthorized),
		errors.Is(err, erp.ErrForbidden),
		errors.Is(err, shipper.ErrAuthenticationFailed):
		return CodeUnauthenticated
	case errors.Is(err, erp.ErrInvalidShipmentNo),
		errors.Is(err, erp.ErrMissingTrackingNumber),
		errors.Is(err, erp.ErrBadRequest),
		errors.Is(err, shipper.ErrInvalidPackage),
		errors.Is(err, shipper.ErrInvalidAddress),
		errors.Is(err, shipper.ErrCarrierNotFound),
		errors.Is(err, errBadInput):
		return CodeBadUserInput
	default:
		return CodeUpstream
	}
}

var errBadInput = errors.New("bad input")

func toGraphQLError(err error, field *ast.Field) *gqlerror.Error {
	gqlErr := &gqlerror.Error{
		Err:        err,
		Message:    err.Error(),
		Extensions: map[string]interface{}{"code": errorCode(err)},
	}
	if field != nil {
		gqlErr.Path = ast.Path{ast.PathName(field.Alias)}
		if field.Position != nil {
			gqlErr.Locations = []gqlerror.Location{{Line: field.Position.Line, Column: field.Position.Column}}
		}
	}
	return gqlErr
}

// ============================================================================
// Argument parsing
// ============================================================================

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}

func objectArg(args map[string]interface{}, name string) (map[string]interface{}, bool) {
	obj, ok := args[name].(map[string]interface{})
	return obj, ok
}

func floatArg(args map[string]interface{}, name string) (float64, error) {
	switch v := args[name].(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a number", errBadInput, name)
	}
}

func parseDimensions(input map[string]interface{}) (erp.PackageDimensions, error) {
	var dims erp.PackageDimensions
	var err error
	if dims.Height, err = floatArg(input, "height"); err != nil {
		return dims, err
	}
	if dims.Width, err = floatArg(input, "width"); err != nil {
		return dims, err
	}
	if dims.Depth, err = floatArg(input, "depth"); err != nil {
		return dims, err
	}
	if dims.Weight, err = floatArg(input, "weight"); err != nil {
		return dims, err
	}
	return dims, nil
}

func parseLabelInput(args map[string]interface{}) (workflow.LabelInput, error) {
	input, ok := objectArg(args, "input")
	if !ok {
		return workflow.LabelInput{}, fmt.Errorf("%w: missing input", errBadInput)
	}
	out := workflow.LabelInput{
		ShipmentNo: stringArg(input, "shipmentNo"),
		Carrier:    stringArg(input, "carrier"),
		Method:     stringArg(input, "method"),
	}
	dims, ok := objectArg(input, "dimensions")
	if !ok {
		return out, fmt.Errorf("%w: missing dimensions", errBadInput)
	}
	var err error
	out.Dimensions, err = parseDimensions(dims)
	return out, err
}

func parseTrackingInput(args map[string]interface{}) (workflow.TrackingInput, error) {
	input, ok := objectArg(args, "input")
	if !ok {
		return workflow.TrackingInput{}, fmt.Errorf("%w: missing input", errBadInput)
	}
	out := workflow.TrackingInput{
		ShipmentNo:     stringArg(input, "shipmentNo"),
		TrackingNumber: stringArg(input, "trackingNumber"),
		ETag:           stringArg(input, "etag"),
	}
	if raw, ok := objectArg(input, "dimensions"); ok {
		dims, err := parseDimensions(raw)
		if err != nil {
			return out, err
		}
		out.Dimensions = &dims
	}
	return out, nil
}

// ============================================================================
// Conversions
// ============================================================================

func serviceToGraphQL(s shipper.ServiceSelection) ServiceSelection {
	return ServiceSelection{Code: s.Code, Description: s.Description}
}

func moneyToGraphQL(m shipper.Money) Money {
	return Money{Amount: m.Amount, Currency: m.Currency}
}

func dimensionsToGraphQL(d *erp.PackageDimensions) *Dimensions {
	if d == nil {
		return nil
	}
	return &Dimensions{Height: d.Height, Width: d.Width, Depth: d.Depth, Weight: d.Weight}
}

func shipmentToGraphQL(s *erp.Shipment) Shipment {
	addr := s.ShipTo()
	out := Shipment{
		No:                   s.No,
		ETag:                 s.ETag,
		LocationCode:         s.LocationCode,
		AssignedUserID:       s.AssignedUserID,
		ExternalDocumentNo:   s.ExternalDocumentNo,
		TrackingNumber:       s.PackageTrackingNo,
		AgentAccount:         s.AgentAccount,
		ShippingInstructions: s.ShippingInstructions,
		Method:               s.Method(),
		ShipTo: Address{
			Name:          addr.Name,
			AttentionName: addr.AttentionName,
			Line1:         addr.Line1,
			Line2:         addr.Line2,
			City:          addr.City,
			State:         addr.StateCode,
			PostalCode:    addr.PostalCode,
			Country:       addr.CountryCode,
		},
		FormattedAddress: s.FormattedAddress(),
	}
	if dims, ok := s.Dimensions(); ok {
		out.Dimensions = dimensionsToGraphQL(&dims)
	}
	return out
}

func viewToGraphQL(v *workflow.ShipmentView) Shipment {
	out := shipmentToGraphQL(v.Shipment)
	out.Method = v.Method
	out.FormattedAddress = v.FormattedAddress
	out.Dimensions = dimensionsToGraphQL(v.Dimensions)
	if v.Service != nil {
		svc := serviceToGraphQL(*v.Service)
		out.Service = &svc
	}
	return out
}

func labelToGraphQL(l *shipper.Label) Label {
	return Label{
		Carrier:              l.Carrier,
		TrackingNumber:       l.TrackingNumber,
		ShipmentID:           l.ShipmentID,
		Service:              serviceToGraphQL(l.Service),
		Format:               string(l.Format),
		Data:                 l.Data,
		BillingWeight:        l.BillingWeight,
		BillingWeightUnit:    l.BillingWeightUnit,
		BaseServiceCharge:    moneyToGraphQL(l.BaseServiceCharge),
		ServiceOptionsCharge: moneyToGraphQL(l.ServiceOptionsCharge),
		TotalCharge:          moneyToGraphQL(l.TotalCharge),
		CustomerContext:      l.CustomerContext,
	}
}
