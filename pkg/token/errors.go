package token

import (
	"errors"
	"fmt"
)

// ErrAuthentication matches any *AuthenticationError via errors.Is.
var ErrAuthentication = errors.New("authentication failed")

// AuthenticationError is returned when an identity provider rejects or
// cannot complete a client-credentials request.
type AuthenticationError struct {
	Service    ServiceKey
	StatusCode int
	Details    string
	Cause      error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s authentication failed: %v", e.Service, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s authentication failed: HTTP %d: %s", e.Service, e.StatusCode, e.Details)
	default:
		return fmt.Sprintf("%s authentication failed: %s", e.Service, e.Details)
	}
}

// Unwrap returns the underlying cause.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}
