// Package graphql serves the scanner-facing GraphQL API on top of the
// shipment workflow.
package graphql

import (
	"context"
	"errors"
	"strings"

	"github.com/tournevent/shipscan/internal/telemetry"
	"github.com/tournevent/shipscan/internal/workflow"
	"github.com/tournevent/shipscan/pkg/shipper"
	"github.com/tournevent/shipscan/pkg/shipper/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies needed by all resolvers.
type Resolver struct {
	Service  *workflow.Service
	Registry *shipper.Registry
	Logger   *otelzap.Logger
	Metrics  *telemetry.Metrics
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(svc *workflow.Service, registry *shipper.Registry, logger *otelzap.Logger, metrics *telemetry.Metrics) *Resolver {
	return &Resolver{
		Service:  svc,
		Registry: registry,
		Logger:   logger,
		Metrics:  metrics,
	}
}

var errIntrospection = errors.New("introspection is not supported")

func (r *Resolver) query(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	switch name {
	case "health":
		return true, nil

	case "carriers":
		return r.Registry.Names(), nil

	case "shippingMethods":
		methods := ups.Methods()
		out := make([]ShippingMethod, 0, len(methods))
		for _, m := range methods {
			out = append(out, ShippingMethod{Method: string(m.Method), Service: serviceToGraphQL(m.Service)})
		}
		return out, nil

	case "shipment":
		view, err := r.Service.LoadShipment(ctx, stringArg(args, "no"))
		if err != nil {
			return nil, err
		}
		return viewToGraphQL(view), nil

	case "resolveService":
		dest := shipper.Destination{
			StateOrCounty: stringArg(args, "state"),
			Country:       stringArg(args, "country"),
		}
		return serviceToGraphQL(ups.ResolveService(dest, stringArg(args, "method"))), nil

	case "__schema", "__type":
		return nil, errIntrospection
	}
	return nil, unknownField("Query", name)
}

func (r *Resolver) mutation(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	switch name {
	case "createLabel":
		input, err := parseLabelInput(args)
		if err != nil {
			return nil, err
		}
		result, err := r.Service.CreateLabel(ctx, input)
		if err != nil {
			return nil, err
		}
		return LabelResult{
			Label:    labelToGraphQL(result.Label),
			Shipment: shipmentToGraphQL(result.Shipment),
		}, nil

	case "recordTracking":
		input, err := parseTrackingInput(args)
		if err != nil {
			return nil, err
		}
		updated, err := r.Service.RecordTracking(ctx, input)
		if err != nil {
			return nil, err
		}
		return shipmentToGraphQL(updated), nil

	case "voidShipment":
		resp, err := r.Service.VoidLabel(ctx, stringArg(args, "carrier"), stringArg(args, "shipmentId"))
		if err != nil {
			return nil, err
		}
		return VoidResult{
			ShipmentID: resp.ShipmentID,
			Status:     string(resp.Status),
			Message:    resp.Message,
		}, nil
	}
	return nil, unknownField("Mutation", name)
}

func unknownField(typeName, name string) error {
	return errors.New("unknown field " + typeName + "." + name)
}

// carrierLabel names the carrier a field talks to, for metrics.
func carrierLabel(name string, args map[string]interface{}) string {
	switch name {
	case "createLabel":
		input, _ := objectArg(args, "input")
		if c := stringArg(input, "carrier"); c != "" {
			return strings.ToLower(c)
		}
		return workflow.DefaultCarrier
	case "voidShipment":
		if c := stringArg(args, "carrier"); c != "" {
			return strings.ToLower(c)
		}
		return workflow.DefaultCarrier
	}
	return ""
}

// upstreamFor names the system a failing field depends on, for metrics.
func upstreamFor(name string) string {
	switch name {
	case "createLabel", "voidShipment":
		return "carrier"
	case "shipment", "recordTracking":
		return "erp"
	}
	return "bridge"
}
