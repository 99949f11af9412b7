package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tournevent/shipscan/pkg/token"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://api.businesscentral.dynamics.com/v2.0"
	DefaultAuthURL = "https://login.microsoftonline.com"
	DefaultScope   = "https://api.businesscentral.dynamics.com/.default"
	DefaultAPIPath = "art/integration/v1.0"

	defaultDataTimeout = 10 * time.Second
	defaultAuthTimeout = 30 * time.Second
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL     string
	tenantID    string
	environment string
	apiPath     string
	companyID   string
	httpClient  *http.Client
	tokens      *token.Cache
	auth        *token.ClientCredentials
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL      string
	AuthURL      string
	TenantID     string
	Environment  string
	CompanyID    string
	APIPath      string
	ClientID     string
	ClientSecret string
	Scope        string
	Timeout      time.Duration
	AuthTimeout  time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
// Tokens are obtained through the shared cache under token.ServiceERP.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig, tokens *token.Cache) *HTTPAPIClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	authURL := strings.TrimRight(cfg.AuthURL, "/")
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	apiPath := strings.Trim(cfg.APIPath, "/")
	if apiPath == "" {
		apiPath = DefaultAPIPath
	}
	scope := cfg.Scope
	if scope == "" {
		scope = DefaultScope
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultDataTimeout
	}
	authTimeout := cfg.AuthTimeout
	if authTimeout == 0 {
		authTimeout = defaultAuthTimeout
	}

	if tokens == nil {
		tokens = token.NewCache()
	}

	return &HTTPAPIClient{
		baseURL:     baseURL,
		tenantID:    cfg.TenantID,
		environment: cfg.Environment,
		apiPath:     apiPath,
		companyID:   cfg.CompanyID,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
		auth: &token.ClientCredentials{
			Service:      token.ServiceERP,
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", authURL, cfg.TenantID),
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scope:        scope,
			HTTPClient:   token.NewHTTPClient(authTimeout),
		},
	}
}

// Warm fetches an ERP token ahead of the first request.
func (c *HTTPAPIClient) Warm(ctx context.Context) error {
	_, err := c.tokens.Token(ctx, token.ServiceERP, c.auth.Authenticate)
	return err
}

// GetShipment fetches a warehouse shipment.
// GET .../companies({companyID})/warehousesshipments('{no}')
func (c *HTTPAPIClient) GetShipment(ctx context.Context, shipmentNo string) (*Shipment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.shipmentURL(shipmentNo), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp, shipmentNo)
	}

	var result Shipment
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shipment response: %w", err)
	}
	if result.ETag == "" {
		result.ETag = resp.Header.Get("ETag")
	}

	return &result, nil
}

// PatchShipment updates a warehouse shipment.
// PATCH .../warehousesshipments('{no}') with If-Match.
func (c *HTTPAPIClient) PatchShipment(ctx context.Context, shipmentNo, ifMatch string, patch *ShipmentPatch) (*Shipment, error) {
	headers := map[string]string{"If-Match": ifMatch}
	resp, err := c.doRequest(ctx, http.MethodPatch, c.shipmentURL(shipmentNo), patch, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
	default:
		return nil, c.parseError(resp, shipmentNo)
	}

	var result Shipment
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// The update went through; only the echo is unreadable.
		return nil, nil
	}
	return &result, nil
}

func (c *HTTPAPIClient) shipmentURL(shipmentNo string) string {
	key := url.PathEscape(strings.ReplaceAll(shipmentNo, "'", "''"))
	return fmt.Sprintf("%s/%s/%s/api/%s/companies(%s)/warehousesshipments('%s')",
		c.baseURL, c.tenantID, c.environment, c.apiPath, c.companyID, key)
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, endpoint string, body interface{}, headers map[string]string) (*http.Response, error) {
	accessToken, err := c.tokens.Token(ctx, token.ServiceERP, c.auth.Authenticate)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erp request failed: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate(token.ServiceERP)
	}
	return resp, nil
}

// parseError extracts error information from an HTTP response. OData
// errors carry {"error":{"code","message"}}.
func (c *HTTPAPIClient) parseError(resp *http.Response, shipmentNo string) error {
	body, _ := io.ReadAll(resp.Body)

	details := strings.TrimSpace(string(body))
	var odata struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &odata); err == nil && odata.Error.Message != "" {
		details = odata.Error.Message
		if odata.Error.Code != "" {
			details = odata.Error.Code + ": " + details
		}
	}
	if details == "" {
		details = "no error details available"
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ShipmentNo: shipmentNo,
		Details:    details,
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
