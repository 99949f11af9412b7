package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// defaultExpiresIn is assumed when the identity provider omits expires_in.
const defaultExpiresIn = 3600

// ClientCredentials performs the OAuth2 client-credentials grant against a
// token endpoint.
type ClientCredentials struct {
	Service      ServiceKey
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	// BasicAuth sends the client credentials in the Authorization header
	// instead of the form body.
	BasicAuth  bool
	HTTPClient *http.Client
}

// NewHTTPClient returns an instrumented HTTP client for token endpoints.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   seconds `json:"expires_in"`
}

// seconds accepts expires_in both as a JSON number and as a quoted string;
// UPS sends the latter.
type seconds int64

func (s *seconds) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expires_in %q: %w", raw, err)
	}
	*s = seconds(n)
	return nil
}

// Authenticate requests a new access token. Every failure is reported as an
// *AuthenticationError.
func (c *ClientCredentials) Authenticate(ctx context.Context) (Grant, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if !c.BasicAuth {
		form.Set("client_id", c.ClientID)
		form.Set("client_secret", c.ClientSecret)
	}
	if c.Scope != "" {
		form.Set("scope", c.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Grant{}, &AuthenticationError{Service: c.Service, Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.BasicAuth {
		req.SetBasicAuth(c.ClientID, c.ClientSecret)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Grant{}, &AuthenticationError{Service: c.Service, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Grant{}, &AuthenticationError{Service: c.Service, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		details := strings.TrimSpace(string(body))
		if details == "" {
			details = http.StatusText(resp.StatusCode)
		}
		return Grant{}, &AuthenticationError{
			Service:    c.Service,
			StatusCode: resp.StatusCode,
			Details:    details,
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Grant{}, &AuthenticationError{
			Service:    c.Service,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("decoding token response: %w", err),
		}
	}
	if tr.AccessToken == "" {
		return Grant{}, &AuthenticationError{
			Service:    c.Service,
			StatusCode: resp.StatusCode,
			Details:    "response did not contain an access_token",
		}
	}

	expiresIn := int64(tr.ExpiresIn)
	if expiresIn == 0 {
		expiresIn = defaultExpiresIn
	}

	return Grant{AccessToken: tr.AccessToken, ExpiresIn: expiresIn}, nil
}
