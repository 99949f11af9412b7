package ups

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

	"github.com/google/uuid"
	"github.com/tournevent/shipscan/pkg/token"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the UPS customer integration environment.
	DefaultBaseURL = "https://wwwcie.ups.com"
	// ProductionBaseURL is the live UPS environment.
	ProductionBaseURL = "https://onlinetools.ups.com"
	// DefaultVersion is the Shipping API version used in request paths.
	DefaultVersion = "v2409"

	tokenPath          = "/security/v1/oauth/token"
	transactionSrc     = "shipscan"
	defaultRateLimit   = 5
	defaultHTTPTimeout = 30 * time.Second
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	version    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     *token.Cache
	auth       *token.ClientCredentials
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL      string
	Version      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	// RateLimit is the number of requests per second sent to UPS.
	RateLimit float64
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
// Tokens are obtained through the shared cache under token.ServiceCarrier.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig, tokens *token.Cache) *HTTPAPIClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}

	if tokens == nil {
		tokens = token.NewCache()
	}

	return &HTTPAPIClient{
		baseURL: baseURL,
		version: version,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		tokens:  tokens,
		auth: &token.ClientCredentials{
			Service:      token.ServiceCarrier,
			TokenURL:     baseURL + tokenPath,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			BasicAuth:    true,
			HTTPClient:   token.NewHTTPClient(timeout),
		},
	}
}

// Warm fetches a carrier token ahead of the first shipment.
func (c *HTTPAPIClient) Warm(ctx context.Context) error {
	_, err := c.tokens.Token(ctx, token.ServiceCarrier, c.auth.Authenticate)
	return err
}

// Ship creates a shipment via the UPS Shipping API.
// POST /api/shipments/{version}/ship
func (c *HTTPAPIClient) Ship(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	path := fmt.Sprintf("/api/shipments/%s/ship", c.version)
	body := struct {
		ShipmentRequest *ShipmentRequest `json:"ShipmentRequest"`
	}{req}

	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var envelope struct {
		ShipmentResponse ShipmentResponse `json:"ShipmentResponse"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode shipment response: %w", err)
	}

	return &envelope.ShipmentResponse, nil
}

// Void cancels a shipment via the UPS Shipping API.
// DELETE /api/shipments/{version}/void/cancel/{shipmentID}
func (c *HTTPAPIClient) Void(ctx context.Context, shipmentID string) (*VoidResponse, error) {
	path := fmt.Sprintf("/api/shipments/%s/void/cancel/%s", c.version, url.PathEscape(shipmentID))

	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var envelope struct {
		VoidShipmentResponse VoidResponse `json:"VoidShipmentResponse"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode void response: %w", err)
	}

	return &envelope.VoidShipmentResponse, nil
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	accessToken, err := c.tokens.Token(ctx, token.ServiceCarrier, c.auth.Authenticate)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
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

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("transId", uuid.New().String())
	req.Header.Set("transactionSrc", transactionSrc)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// A rejected bearer token is dropped so the next call re-authenticates.
	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate(token.ServiceCarrier)
	}
	return resp, nil
}

// parseError extracts error information from an HTTP response.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Response.Errors) > 0 {
		apiErr := envelope.Response.Errors[0]
		if len(envelope.Response.Errors) > 1 {
			messages := make([]string, 0, len(envelope.Response.Errors))
			for _, e := range envelope.Response.Errors {
				messages = append(messages, e.Message)
			}
			apiErr.Message = strings.Join(messages, "; ")
		}
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
		Message:    strings.TrimSpace(string(body)),
		StatusCode: resp.StatusCode,
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
