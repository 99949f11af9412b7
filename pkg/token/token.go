// Package token caches OAuth2 bearer tokens for the upstream services the
// bridge talks to (the ERP and the carrier).
package token

import (
	"context"
	"time"
)

// ServiceKey identifies the upstream service a cached token belongs to.
type ServiceKey int

const (
	// ServiceERP is the Business Central ERP API.
	ServiceERP ServiceKey = iota + 1
	// ServiceCarrier is the carrier (UPS) API.
	ServiceCarrier
)

// String returns the service name used in logs and metrics.
func (k ServiceKey) String() string {
	switch k {
	case ServiceERP:
		return "erp"
	case ServiceCarrier:
		return "carrier"
	default:
		return "unknown"
	}
}

// CachedToken is a bearer token together with the instant after which it
// must no longer be handed out.
type CachedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token can still be used at now.
func (t CachedToken) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// Grant is the result of a successful authentication call.
type Grant struct {
	AccessToken string
	// ExpiresIn is the token lifetime in seconds as reported by the identity provider.
	ExpiresIn int64
}

// AuthenticateFunc performs the network authentication for one service.
type AuthenticateFunc func(ctx context.Context) (Grant, error)
