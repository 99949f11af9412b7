package erp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipscan/pkg/erp"
	"github.com/tournevent/shipscan/pkg/token"
)

const shipmentPath = "/tenant-1/Production/api/art/integration/v1.0/companies(cmp-1)/warehousesshipments('WS-1001')"

type bcServer struct {
	*httptest.Server
	tokenCalls atomic.Int32

	mu        sync.Mutex
	ifMatch   string
	patchBody map[string]interface{}
	form      map[string]string
}

func newBCServer(t *testing.T) *bcServer {
	t.Helper()
	s := &bcServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/tenant-1/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		s.tokenCalls.Add(1)
		_ = r.ParseForm()
		s.mu.Lock()
		s.form = map[string]string{
			"grant_type":    r.PostForm.Get("grant_type"),
			"client_id":     r.PostForm.Get("client_id"),
			"client_secret": r.PostForm.Get("client_secret"),
			"scope":         r.PostForm.Get("scope"),
		}
		s.mu.Unlock()
		_, _ = w.Write([]byte(`{"token_type":"Bearer","expires_in":3599,"access_token":"bc-token"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer bc-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "warehousesshipments('WS-1001')") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"BadRequest_NotFound","message":"The resource was not found."}}`))
			return
		}
		assert.Equal(t, shipmentPath, r.URL.Path)

		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{
				"@odata.context": "https://example/$metadata#companies(cmp-1)/warehousesshipments/$entity",
				"@odata.etag": "W/\"JzQ0OzE7\"",
				"no": "WS-1001",
				"agentAccount": "ZZ9999",
				"packageLength": 0,
				"shipToName": "Acme Corp",
				"shipToCounty": "HI",
				"shipToCountry": "US"
			}`))
		case http.MethodPatch:
			s.mu.Lock()
			s.ifMatch = r.Header.Get("If-Match")
			_ = json.NewDecoder(r.Body).Decode(&s.patchBody)
			s.mu.Unlock()
			if r.Header.Get("If-Match") == `W/"stale"` {
				w.WriteHeader(http.StatusPreconditionFailed)
				_, _ = w.Write([]byte(`{"error":{"code":"Request_EntityChanged","message":"Another user has already changed the record."}}`))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newHTTPClient(s *bcServer) *erp.HTTPAPIClient {
	return erp.NewHTTPAPIClient(erp.HTTPAPIClientConfig{
		BaseURL:      s.URL,
		AuthURL:      s.URL,
		TenantID:     "tenant-1",
		Environment:  "Production",
		CompanyID:    "cmp-1",
		ClientID:     "bc-client",
		ClientSecret: "bc-secret",
	}, token.NewCache())
}

func TestHTTPAPIClient_GetShipment(t *testing.T) {
	s := newBCServer(t)
	client := newHTTPClient(s)

	shipment, err := client.GetShipment(context.Background(), "WS-1001")

	require.NoError(t, err)
	assert.Equal(t, "WS-1001", shipment.No)
	assert.Equal(t, `W/"JzQ0OzE7"`, shipment.ETag)
	assert.Equal(t, "ZZ9999", shipment.AgentAccount)
	assert.Equal(t, "HI", shipment.ShipToCounty)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, "client_credentials", s.form["grant_type"])
	assert.Equal(t, "bc-client", s.form["client_id"])
	assert.Equal(t, "bc-secret", s.form["client_secret"])
	assert.Equal(t, erp.DefaultScope, s.form["scope"])
}

func TestHTTPAPIClient_TokenReused(t *testing.T) {
	s := newBCServer(t)
	client := newHTTPClient(s)
	ctx := context.Background()

	_, err := client.GetShipment(ctx, "WS-1001")
	require.NoError(t, err)
	_, err = client.GetShipment(ctx, "WS-1001")
	require.NoError(t, err)

	assert.Equal(t, int32(1), s.tokenCalls.Load())
}

func TestHTTPAPIClient_GetShipment_NotFound(t *testing.T) {
	s := newBCServer(t)
	client := newHTTPClient(s)

	_, err := client.GetShipment(context.Background(), "WS-9999")

	assert.ErrorIs(t, err, erp.ErrShipmentNotFound)
	var apiErr *erp.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BadRequest_NotFound: The resource was not found.", apiErr.Details)
}

func TestHTTPAPIClient_PatchShipment(t *testing.T) {
	s := newBCServer(t)
	client := newHTTPClient(s)

	updated, err := client.PatchShipment(context.Background(), "WS-1001", `W/"JzQ0OzE7"`, &erp.ShipmentPatch{
		PackageLength:     12,
		PackageWidth:      8,
		PackageHeight:     6,
		PackageWeight:     4.5,
		PackageTrackingNo: "1ZTRACK",
	})

	require.NoError(t, err)
	assert.Nil(t, updated)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, `W/"JzQ0OzE7"`, s.ifMatch)
	assert.Equal(t, "1ZTRACK", s.patchBody["PackageTrackingNo"])
	assert.Equal(t, 12.0, s.patchBody["packageLength"])
	assert.Equal(t, 4.5, s.patchBody["packageWeight"])
}

func TestHTTPAPIClient_PatchShipment_OmitsZeroDimensions(t *testing.T) {
	s := newBCServer(t)
	client := newHTTPClient(s)

	_, err := client.PatchShipment(context.Background(), "WS-1001", "*", &erp.ShipmentPatch{PackageTrackingNo: "1ZTRACK"})
	require.NoError(t, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, "*", s.ifMatch)
	assert.NotContains(t, s.patchBody, "packageLength")
	assert.Equal(t, "1ZTRACK", s.patchBody["PackageTrackingNo"])
}

func TestHTTPAPIClient_PatchShipment_PreconditionFailed(t *testing.T) {
	s := newBCServer(t)
	client := newHTTPClient(s)

	_, err := client.PatchShipment(context.Background(), "WS-1001", `W/"stale"`, &erp.ShipmentPatch{PackageTrackingNo: "1Z"})

	assert.ErrorIs(t, err, erp.ErrConcurrentModification)
}

func TestHTTPAPIClient_AuthenticationFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tenant-1/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := erp.NewHTTPAPIClient(erp.HTTPAPIClientConfig{
		BaseURL:  srv.URL,
		AuthURL:  srv.URL,
		TenantID: "tenant-1",
	}, token.NewCache())

	_, err := client.GetShipment(context.Background(), "WS-1001")

	assert.ErrorIs(t, err, token.ErrAuthentication)
	var authErr *token.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, token.ServiceERP, authErr.Service)
	assert.Equal(t, http.StatusBadRequest, authErr.StatusCode)
}

func TestClient_UpdateTracking_NoContentRereads(t *testing.T) {
	s := newBCServer(t)
	client := erp.NewWithAPIClient(erp.Config{}, newHTTPClient(s), nil, nil)

	updated, err := client.UpdateTracking(context.Background(), erp.TrackingUpdate{
		ShipmentNo:     "WS-1001",
		TrackingNumber: "1ZTRACK",
		ETag:           "JzQ0OzE7",
	})

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "WS-1001", updated.No)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, `W/"JzQ0OzE7"`, s.ifMatch)
}
