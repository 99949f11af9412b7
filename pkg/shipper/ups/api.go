package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// APIClient defines the interface for UPS Shipping API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// Ship creates a shipment and returns its label
	Ship(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// Void cancels a shipment that has not been picked up
	Void(ctx context.Context, shipmentID string) (*VoidResponse, error)
}

// ============================================================================
// API Request Types (match UPS Shipping API v2409 JSON structure)
// ============================================================================

// ShipmentRequest is the body of POST /api/shipments/{version}/ship, without
// the outer "ShipmentRequest" envelope.
type ShipmentRequest struct {
	Request            RequestInfo        `json:"Request"`
	Shipment           Shipment           `json:"Shipment"`
	LabelSpecification LabelSpecification `json:"LabelSpecification"`
}

// RequestInfo carries request options and the echoed customer context.
type RequestInfo struct {
	SubVersion           string               `json:"SubVersion,omitempty"`
	RequestOption        string               `json:"RequestOption"`
	TransactionReference TransactionReference `json:"TransactionReference"`
}

// TransactionReference is echoed back unchanged in the response.
type TransactionReference struct {
	CustomerContext string `json:"CustomerContext,omitempty"`
}

// Shipment describes the parties, the service and the package.
type Shipment struct {
	Description        string             `json:"Description"`
	Shipper            Party              `json:"Shipper"`
	ShipTo             Party              `json:"ShipTo"`
	ShipFrom           Party              `json:"ShipFrom"`
	PaymentInformation PaymentInformation `json:"PaymentInformation"`
	Service            CodeDescription    `json:"Service"`
	Package            Package            `json:"Package"`
}

// Party is a shipper, ship-to or ship-from entry.
type Party struct {
	Name          string  `json:"Name"`
	AttentionName string  `json:"AttentionName,omitempty"`
	ShipperNumber string  `json:"ShipperNumber,omitempty"`
	Phone         *Phone  `json:"Phone,omitempty"`
	FaxNumber     string  `json:"FaxNumber,omitempty"`
	Address       Address `json:"Address"`
}

// Phone holds a phone number.
type Phone struct {
	Number string `json:"Number"`
}

// Address is a UPS postal address.
type Address struct {
	AddressLine       []string `json:"AddressLine,omitempty"`
	City              string   `json:"City,omitempty"`
	StateProvinceCode string   `json:"StateProvinceCode,omitempty"`
	PostalCode        string   `json:"PostalCode,omitempty"`
	CountryCode       string   `json:"CountryCode,omitempty"`
}

// PaymentInformation decides who pays for the shipment.
type PaymentInformation struct {
	ShipmentCharge ShipmentCharge `json:"ShipmentCharge"`
}

// ShipmentCharge bills either the shipper or the receiver. Type "01" is
// the transportation charge.
type ShipmentCharge struct {
	Type         string        `json:"Type"`
	BillShipper  *BillShipper  `json:"BillShipper,omitempty"`
	BillReceiver *BillReceiver `json:"BillReceiver,omitempty"`
}

// BillShipper bills our own account.
type BillShipper struct {
	AccountNumber string `json:"AccountNumber"`
}

// BillReceiver bills the customer's account.
type BillReceiver struct {
	AccountNumber string  `json:"AccountNumber"`
	Address       Address `json:"Address"`
}

// CodeDescription is the common UPS code/description pair.
type CodeDescription struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// Package is a single package in the shipment.
type Package struct {
	Description   string          `json:"Description,omitempty"`
	Packaging     CodeDescription `json:"Packaging"`
	Dimensions    Dimensions      `json:"Dimensions"`
	PackageWeight PackageWeight   `json:"PackageWeight"`
}

// Dimensions carries sizes as decimal strings.
type Dimensions struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Length            string          `json:"Length"`
	Width             string          `json:"Width"`
	Height            string          `json:"Height"`
}

// PackageWeight carries the weight as a decimal string.
type PackageWeight struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Weight            string          `json:"Weight"`
}

// LabelSpecification selects the label image format.
type LabelSpecification struct {
	LabelImageFormat CodeDescription `json:"LabelImageFormat"`
	HTTPUserAgent    string          `json:"HTTPUserAgent,omitempty"`
}

// ============================================================================
// API Response Types
// ============================================================================

// ShipmentResponse is the content of the "ShipmentResponse" envelope.
type ShipmentResponse struct {
	Response        ResponseInfo    `json:"Response"`
	ShipmentResults ShipmentResults `json:"ShipmentResults"`
}

// ResponseInfo carries the response status and the echoed reference.
type ResponseInfo struct {
	ResponseStatus       CodeDescription      `json:"ResponseStatus"`
	TransactionReference TransactionReference `json:"TransactionReference"`
}

// ShipmentResults holds charges, the identification number and the
// per-package results.
type ShipmentResults struct {
	ShipmentCharges              *ShipmentCharges  `json:"ShipmentCharges,omitempty"`
	BillingWeight                *BillingWeight    `json:"BillingWeight,omitempty"`
	ShipmentIdentificationNumber string            `json:"ShipmentIdentificationNumber"`
	PackageResults               PackageResultList `json:"PackageResults"`
}

// ShipmentCharges holds the shipment totals.
type ShipmentCharges struct {
	TotalCharges Charge `json:"TotalCharges"`
}

// Charge is a monetary value as UPS sends it.
type Charge struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

// BillingWeight is the weight UPS billed for.
type BillingWeight struct {
	UnitOfMeasurement CodeDescription `json:"UnitOfMeasurement"`
	Weight            string          `json:"Weight"`
}

// PackageResult is the label and tracking number of one package.
type PackageResult struct {
	TrackingNumber        string        `json:"TrackingNumber"`
	BaseServiceCharge     *Charge       `json:"BaseServiceCharge,omitempty"`
	ServiceOptionsCharges *Charge       `json:"ServiceOptionsCharges,omitempty"`
	ShippingLabel         ShippingLabel `json:"ShippingLabel"`
}

// ShippingLabel is the base64 label image.
type ShippingLabel struct {
	ImageFormat  CodeDescription `json:"ImageFormat"`
	GraphicImage string          `json:"GraphicImage"`
}

// PackageResultList decodes PackageResults, which UPS sends as an object for
// single-package shipments and as an array otherwise.
type PackageResultList []PackageResult

// UnmarshalJSON implements json.Unmarshaler.
func (l *PackageResultList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var list []PackageResult
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}
	var single PackageResult
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = PackageResultList{single}
	return nil
}

// VoidResponse is the content of the "VoidShipmentResponse" envelope.
type VoidResponse struct {
	Response      ResponseInfo `json:"Response"`
	SummaryResult struct {
		Status CodeDescription `json:"Status"`
	} `json:"SummaryResult"`
}

// ============================================================================
// Error Types
// ============================================================================

// APIError represents an error returned by the UPS API.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("UPS API error %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("UPS API error %s: %s", e.Code, e.Message)
}

// errorEnvelope is the UPS error body: {"response":{"errors":[...]}}.
type errorEnvelope struct {
	Response struct {
		Errors []APIError `json:"errors"`
	} `json:"response"`
}
