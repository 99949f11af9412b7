package graphql_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipscan/internal/graphql"
	"github.com/tournevent/shipscan/internal/telemetry"
	"github.com/tournevent/shipscan/internal/workflow"
	"github.com/tournevent/shipscan/pkg/erp"
	"github.com/tournevent/shipscan/pkg/shipper"
	"github.com/tournevent/shipscan/pkg/shipper/mock"
	"github.com/tournevent/shipscan/pkg/shipper/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestResolver(t *testing.T) (*graphql.Resolver, *erp.MockAPIClient, *ups.MockAPIClient) {
	t.Helper()
	logger := otelzap.New(zap.NewNop())

	erpAPI := erp.NewMockAPIClient()
	erpAPI.Seed(erp.Shipment{
		No:             "WS-1001",
		AgentAccount:   "ZZ9999",
		ShipToName:     "Acme Corp",
		ShipToAddress:  "1 Main St",
		ShipToCity:     "Honolulu",
		ShipToCounty:   "HI",
		ShipToPostCode: "96813",
		ShipToCountry:  "US",
	})

	upsAPI := ups.NewMockAPIClient()
	registry := shipper.NewRegistry()
	registry.Register(ups.NewWithAPIClient(ups.Config{AccountNumber: "A1B2C3"}, upsAPI, logger, nil))
	registry.Register(mock.New("mock"))

	svc := workflow.New(erp.NewWithAPIClient(erp.Config{}, erpAPI, logger, nil), registry, logger)
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

	return graphql.NewResolver(svc, registry, logger, metrics), erpAPI, upsAPI
}

func execute(t *testing.T, r *graphql.Resolver, query string, vars map[string]interface{}) *graphql.Response {
	t.Helper()
	return r.Execute(context.Background(), graphql.Request{Query: query, Variables: vars})
}

func errorCode(t *testing.T, resp *graphql.Response) string {
	t.Helper()
	require.NotEmpty(t, resp.Errors)
	code, _ := resp.Errors[0].Extensions["code"].(string)
	return code
}

func TestResolver_Health(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `{ health }`, nil)

	require.Empty(t, resp.Errors)
	assert.Equal(t, true, resp.Data["health"])
}

func TestResolver_Carriers(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `{ carriers }`, nil)

	require.Empty(t, resp.Errors)
	assert.Equal(t, []interface{}{"mock", "ups"}, resp.Data["carriers"])
}

func TestResolver_ShippingMethods(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `{ shippingMethods { method service { code } } }`, nil)

	require.Empty(t, resp.Errors)
	methods, ok := resp.Data["shippingMethods"].([]interface{})
	require.True(t, ok)
	require.Len(t, methods, len(ups.Methods()))
	assert.Equal(t, map[string]interface{}{
		"method":  "GROUND",
		"service": map[string]interface{}{"code": "03"},
	}, methods[0])
}

func TestResolver_ResolveService(t *testing.T) {
	r, _, _ := newTestResolver(t)

	tests := []struct {
		query string
		code  string
	}{
		{`{ resolveService(state: "PR") { code } }`, "01"},
		{`{ resolveService(state: "hi", country: "US", method: "GROUND") { code } }`, "02"},
		{`{ resolveService(state: "ON", country: "CA") { code } }`, "11"},
		{`{ resolveService(state: "TX", method: "next_day_air") { code } }`, "01"},
		{`{ resolveService { code } }`, "03"},
	}
	for _, tt := range tests {
		resp := execute(t, r, tt.query, nil)
		require.Empty(t, resp.Errors, tt.query)
		assert.Equal(t, map[string]interface{}{"code": tt.code}, resp.Data["resolveService"], tt.query)
	}
}

func TestResolver_Shipment(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `query Scan($no: String!) {
		shipment(no: $no) {
			no
			method
			shipTo { city state }
			dimensions { weight }
			service { code description }
		}
	}`, map[string]interface{}{"no": "WS-1001"})

	require.Empty(t, resp.Errors)
	assert.Equal(t, map[string]interface{}{
		"no":         "WS-1001",
		"method":     "GROUND",
		"shipTo":     map[string]interface{}{"city": "Honolulu", "state": "HI"},
		"dimensions": nil,
		"service":    map[string]interface{}{"code": "02", "description": "UPS 2nd Day Air"},
	}, resp.Data["shipment"])
}

func TestResolver_Shipment_AliasesAndFragments(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `
		query {
			scanned: shipment(no: "WS-1001") { ...Basics __typename }
		}
		fragment Basics on Shipment { no agent: agentAccount }
	`, nil)

	require.Empty(t, resp.Errors)
	assert.Equal(t, map[string]interface{}{
		"no":         "WS-1001",
		"agent":      "ZZ9999",
		"__typename": "Shipment",
	}, resp.Data["scanned"])
}

func TestResolver_Shipment_SkipInclude(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `query ($full: Boolean!) {
		shipment(no: "WS-1001") { no formattedAddress @include(if: $full) etag @skip(if: true) }
	}`, map[string]interface{}{"full": false})

	require.Empty(t, resp.Errors)
	assert.Equal(t, map[string]interface{}{"no": "WS-1001"}, resp.Data["shipment"])
}

func TestResolver_Shipment_EmptyBarcode(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `{ shipment(no: " ") { no } }`, nil)

	assert.Equal(t, graphql.CodeBadUserInput, errorCode(t, resp))
	assert.Nil(t, resp.Data["shipment"])
}

func TestResolver_CreateLabel(t *testing.T) {
	r, erpAPI, upsAPI := newTestResolver(t)

	resp := execute(t, r, `mutation Ship($input: CreateLabelInput!) {
		createLabel(input: $input) {
			label { carrier trackingNumber service { code } totalCharge { amount currency } }
			shipment { no }
		}
	}`, map[string]interface{}{
		"input": map[string]interface{}{
			"shipmentNo": "WS-1001",
			"dimensions": map[string]interface{}{"height": 6.0, "width": 8.0, "depth": 12.0, "weight": 4.5},
		},
	})

	require.Empty(t, resp.Errors)
	result, ok := resp.Data["createLabel"].(map[string]interface{})
	require.True(t, ok)
	label := result["label"].(map[string]interface{})
	assert.Equal(t, "ups", label["carrier"])
	assert.NotEmpty(t, label["trackingNumber"])
	assert.Equal(t, map[string]interface{}{"code": "02"}, label["service"])
	assert.Equal(t, map[string]interface{}{"amount": 15.82, "currency": "USD"}, label["totalCharge"])
	assert.Equal(t, map[string]interface{}{"no": "WS-1001"}, result["shipment"])

	sent := upsAPI.LastRequest()
	require.NotNil(t, sent)
	assert.Equal(t, "4.5", sent.Shipment.Package.PackageWeight.Weight)
	assert.Empty(t, erpAPI.Patches())
}

func TestResolver_CreateLabel_LiteralIntegers(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `mutation {
		createLabel(input: {shipmentNo: "WS-1001", carrier: "mock", dimensions: {height: 6, width: 8, depth: 12, weight: 5}}) {
			label { carrier }
		}
	}`, nil)

	require.Empty(t, resp.Errors)
	assert.Equal(t, map[string]interface{}{
		"label": map[string]interface{}{"carrier": "mock"},
	}, resp.Data["createLabel"])
}

func TestResolver_CreateLabel_InvalidDimensions(t *testing.T) {
	r, _, upsAPI := newTestResolver(t)

	resp := execute(t, r, `mutation {
		createLabel(input: {shipmentNo: "WS-1001", dimensions: {height: 6, width: 0, depth: 12, weight: 5}}) { label { carrier } }
	}`, nil)

	assert.Equal(t, graphql.CodeBadUserInput, errorCode(t, resp))
	assert.Contains(t, resp.Errors[0].Message, "width")
	assert.Nil(t, upsAPI.LastRequest())
}

func TestResolver_CreateLabel_UpstreamError(t *testing.T) {
	r, _, upsAPI := newTestResolver(t)
	upsAPI.SimulateErrors = true

	resp := execute(t, r, `mutation {
		createLabel(input: {shipmentNo: "WS-1001", dimensions: {height: 6, width: 8, depth: 12, weight: 5}}) { label { carrier } }
	}`, nil)

	assert.Equal(t, graphql.CodeUpstream, errorCode(t, resp))
	assert.Equal(t, "createLabel", resp.Errors[0].Path.String())
}

func TestResolver_RecordTracking(t *testing.T) {
	r, erpAPI, _ := newTestResolver(t)

	resp := execute(t, r, `mutation ($input: RecordTrackingInput!) {
		recordTracking(input: $input) { no trackingNumber dimensions { weight } }
	}`, map[string]interface{}{
		"input": map[string]interface{}{
			"shipmentNo":     "WS-1001",
			"trackingNumber": "1ZTRACK",
			"dimensions":     map[string]interface{}{"height": 6.0, "width": 8.0, "depth": 12.0, "weight": 4.5},
		},
	})

	require.Empty(t, resp.Errors)
	assert.Equal(t, map[string]interface{}{
		"no":             "WS-1001",
		"trackingNumber": "1ZTRACK",
		"dimensions":     map[string]interface{}{"weight": 4.5},
	}, resp.Data["recordTracking"])
	assert.Len(t, erpAPI.Patches(), 1)
}

func TestResolver_RecordTracking_Conflict(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `mutation {
		recordTracking(input: {shipmentNo: "WS-1001", trackingNumber: "1Z", etag: "W/\"stale\""}) { no }
	}`, nil)

	assert.Equal(t, graphql.CodeConflict, errorCode(t, resp))
}

func TestResolver_VoidShipment(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `mutation { voidShipment(shipmentId: "1ZSHIP") { shipmentId status } }`, nil)

	require.Empty(t, resp.Errors)
	assert.Equal(t, map[string]interface{}{
		"shipmentId": "1ZSHIP",
		"status":     string(shipper.StatusCancelled),
	}, resp.Data["voidShipment"])
}

func TestResolver_VoidShipment_UnknownCarrier(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `mutation { voidShipment(carrier: "pigeon", shipmentId: "1Z") { status } }`, nil)

	assert.Equal(t, graphql.CodeBadUserInput, errorCode(t, resp))
}

func TestResolver_ValidationErrors(t *testing.T) {
	r, _, _ := newTestResolver(t)

	tests := []struct {
		name  string
		query string
		vars  map[string]interface{}
		code  string
	}{
		{"syntax", `{ health`, nil, graphql.CodeValidation},
		{"unknown field", `{ nope }`, nil, graphql.CodeValidation},
		{"missing argument", `{ shipment { no } }`, nil, graphql.CodeValidation},
		{"missing variable", `query ($no: String!) { shipment(no: $no) { no } }`, nil, graphql.CodeBadUserInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := execute(t, r, tt.query, tt.vars)
			assert.Nil(t, resp.Data)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}
}

func TestResolver_OperationName(t *testing.T) {
	r, _, _ := newTestResolver(t)
	query := `query A { health } query B { carriers }`

	resp := r.Execute(context.Background(), graphql.Request{Query: query, OperationName: "B"})
	require.Empty(t, resp.Errors)
	assert.Contains(t, resp.Data, "carriers")
	assert.NotContains(t, resp.Data, "health")

	resp = r.Execute(context.Background(), graphql.Request{Query: query})
	assert.Equal(t, graphql.CodeBadUserInput, errorCode(t, resp))
}

func TestResolver_PartialFailure(t *testing.T) {
	r, _, _ := newTestResolver(t)

	resp := execute(t, r, `{ health shipment(no: "") { no } }`, nil)

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, true, resp.Data["health"])
	assert.Nil(t, resp.Data["shipment"])
}
