package graphql

// Response models mirror schema.graphqls. JSON names are the GraphQL field
// names; projection works on their encoded form.

type ServiceSelection struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type ShippingMethod struct {
	Method  string           `json:"method"`
	Service ServiceSelection `json:"service"`
}

type Address struct {
	Name          string `json:"name"`
	AttentionName string `json:"attentionName"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
}

type Dimensions struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Weight float64 `json:"weight"`
}

type Shipment struct {
	No                   string            `json:"no"`
	ETag                 string            `json:"etag"`
	LocationCode         string            `json:"locationCode"`
	AssignedUserID       string            `json:"assignedUserId"`
	ExternalDocumentNo   string            `json:"externalDocumentNo"`
	TrackingNumber       string            `json:"trackingNumber"`
	AgentAccount         string            `json:"agentAccount"`
	ShippingInstructions string            `json:"shippingInstructions"`
	Method               string            `json:"method"`
	ShipTo               Address           `json:"shipTo"`
	FormattedAddress     string            `json:"formattedAddress"`
	Dimensions           *Dimensions       `json:"dimensions"`
	Service              *ServiceSelection `json:"service"`
}

type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type Label struct {
	Carrier              string           `json:"carrier"`
	TrackingNumber       string           `json:"trackingNumber"`
	ShipmentID           string           `json:"shipmentId"`
	Service              ServiceSelection `json:"service"`
	Format               string           `json:"format"`
	Data                 string           `json:"data"`
	BillingWeight        string           `json:"billingWeight"`
	BillingWeightUnit    string           `json:"billingWeightUnit"`
	BaseServiceCharge    Money            `json:"baseServiceCharge"`
	ServiceOptionsCharge Money            `json:"serviceOptionsCharge"`
	TotalCharge          Money            `json:"totalCharge"`
	CustomerContext      string           `json:"customerContext"`
}

type LabelResult struct {
	Label    Label    `json:"label"`
	Shipment Shipment `json:"shipment"`
}

type VoidResult struct {
	ShipmentID string `json:"shipmentId"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}
