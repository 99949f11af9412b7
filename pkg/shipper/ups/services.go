package ups

import (
	"strings"

	"github.com/tournevent/shipscan/pkg/shipper"
)

// Method is an ERP shipment method code as it appears on warehouse shipments.
type Method string

const (
	MethodGround            Method = "GROUND"
	MethodNextDayAir        Method = "NEXT_DAY_AIR"
	MethodSecondDayAir      Method = "SECOND_DAY_AIR"
	MethodThreeDaySelect    Method = "THREE_DAY_SELECT"
	MethodNextDayAirSaver   Method = "NEXT_DAY_AIR_SAVER"
	MethodNextDayAirEarlyAM Method = "NEXT_DAY_AIR_EARLY_AM"
	MethodSecondDayAirAM    Method = "SECOND_DAY_AIR_AM"
	MethodExpressPlus       Method = "EXPRESS_PLUS"
)

// UPS service codes used outside the method table.
var (
	serviceNextDayAir   = shipper.ServiceSelection{Code: "01", Description: "UPS Next Day Air"}
	serviceSecondDayAir = shipper.ServiceSelection{Code: "02", Description: "UPS 2nd Day Air"}
	serviceGround       = shipper.ServiceSelection{Code: "03", Description: "UPS Ground"}
	serviceStandard     = shipper.ServiceSelection{Code: "11", Description: "UPS Standard"}
)

var methodTable = map[Method]shipper.ServiceSelection{
	MethodGround:            serviceGround,
	MethodNextDayAir:        serviceNextDayAir,
	MethodSecondDayAir:      serviceSecondDayAir,
	MethodThreeDaySelect:    {Code: "12", Description: "UPS 3 Day Select"},
	MethodNextDayAirSaver:   {Code: "13", Description: "UPS Next Day Air Saver"},
	MethodNextDayAirEarlyAM: {Code: "14", Description: "UPS Next Day Air Early"},
	MethodSecondDayAirAM:    {Code: "59", Description: "UPS 2nd Day Air A.M."},
	MethodExpressPlus:       {Code: "54", Description: "UPS Worldwide Express Plus"},
}

// methodOrder fixes the listing order of Methods.
var methodOrder = []Method{
	MethodGround,
	MethodThreeDaySelect,
	MethodSecondDayAir,
	MethodSecondDayAirAM,
	MethodNextDayAirSaver,
	MethodNextDayAir,
	MethodNextDayAirEarlyAM,
	MethodExpressPlus,
}

// Ground has no service to these states.
var airOnlyStates = map[string]bool{
	"AK": true,
	"HI": true,
}

var outlyingTerritories = map[string]bool{
	"VI": true,
	"GU": true,
	"AS": true,
	"MP": true,
}

var domesticCountries = map[string]bool{
	"":    true,
	"US":  true,
	"USA": true,
}

// MethodService pairs a method with the service it maps to.
type MethodService struct {
	Method  Method
	Service shipper.ServiceSelection
}

// ParseMethod normalizes a method code. Empty input yields MethodGround.
func ParseMethod(code string) Method {
	m := Method(strings.ToUpper(strings.TrimSpace(code)))
	if m == "" {
		return MethodGround
	}
	return m
}

// Lookup returns the service for m. Unknown methods fall back to ground.
func (m Method) Lookup() shipper.ServiceSelection {
	if s, ok := methodTable[m]; ok {
		return s
	}
	return serviceGround
}

// Known reports whether m is in the method table.
func (m Method) Known() bool {
	_, ok := methodTable[m]
	return ok
}

// ResolveService picks the UPS service for a destination. Rules are applied
// in order and the first match wins; the result is never empty.
func ResolveService(dest shipper.Destination, requestedMethod string) shipper.ServiceSelection {
	state := strings.ToUpper(strings.TrimSpace(dest.StateOrCounty))
	country := strings.ToUpper(strings.TrimSpace(dest.Country))

	switch {
	case state == "PR":
		return serviceNextDayAir
	case airOnlyStates[state]:
		return serviceSecondDayAir
	case outlyingTerritories[state]:
		return serviceSecondDayAir
	case !domesticCountries[country]:
		return serviceStandard
	case domesticCountries[country]:
		return ParseMethod(requestedMethod).Lookup()
	default:
		return serviceSecondDayAir
	}
}

// DescribeService returns the description of a method code, independent of
// any destination.
func DescribeService(method string) string {
	return ParseMethod(method).Lookup().Description
}

// Methods lists every supported method with its service.
func Methods() []MethodService {
	out := make([]MethodService, 0, len(methodOrder))
	for _, m := range methodOrder {
		out = append(out, MethodService{Method: m, Service: methodTable[m]})
	}
	return out
}
