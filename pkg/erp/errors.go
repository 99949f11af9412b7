package erp

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for ERP responses, matched with errors.Is.
var (
	ErrUnauthorized           = errors.New("erp authentication rejected")
	ErrForbidden              = errors.New("erp access forbidden")
	ErrShipmentNotFound       = errors.New("shipment not found")
	ErrBadRequest             = errors.New("erp bad request")
	ErrConcurrentModification = errors.New("shipment modified concurrently")
	ErrServerError            = errors.New("erp server error")
	ErrInvalidShipmentNo      = errors.New("invalid shipment number")
	ErrMissingTrackingNumber  = errors.New("tracking number is required")
)

// APIError represents a non-success response from the ERP API.
type APIError struct {
	StatusCode int
	ShipmentNo string
	Details    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "erp: authentication failed, check ERP credentials"
	case http.StatusForbidden:
		return "erp: access forbidden, check API permissions"
	case http.StatusNotFound:
		return fmt.Sprintf("erp: shipment '%s' not found", e.ShipmentNo)
	case http.StatusBadRequest:
		return fmt.Sprintf("erp: bad request: %s", e.Details)
	case http.StatusPreconditionFailed:
		return fmt.Sprintf("erp: shipment '%s' was modified by another user", e.ShipmentNo)
	}
	if e.StatusCode >= http.StatusInternalServerError {
		return fmt.Sprintf("erp: server error: %s", e.Details)
	}
	return fmt.Sprintf("erp: HTTP %d: %s", e.StatusCode, e.Details)
}

// Unwrap maps the status code onto a sentinel error.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrShipmentNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusPreconditionFailed:
		return ErrConcurrentModification
	}
	if e.StatusCode >= http.StatusInternalServerError {
		return ErrServerError
	}
	return nil
}

// Retryable reports whether the request may succeed when sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
