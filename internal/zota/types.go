package zota

import "context"

// Gateway is the outbound interface to the deposit processor. Both the real
// HTTP client and the test mock implement it.
type Gateway interface {
	// Deposit submits a deposit request and returns the hosted payment page
	// URL together with the processor's order identifiers.
	Deposit(ctx context.Context, req *DepositRequest) (*DepositResult, error)

	// OrderStatus queries the current processor-side status of an order.
	OrderStatus(ctx context.Context, req *OrderStatusRequest) (*OrderStatusResult, error)
}

// DepositRequest is the payload for a deposit submission. EndpointID selects
// the currency-specific processor endpoint and participates in the request
// signature.
type DepositRequest struct {
	EndpointID        string `json:"-"`
	MerchantOrderID   string `json:"merchantOrderID"`
	MerchantOrderDesc string `json:"merchantOrderDesc"`
	OrderAmount       string `json:"orderAmount"`
	OrderCurrency     string `json:"orderCurrency"`
	CustomerEmail     string `json:"customerEmail"`
	CustomerFirstName string `json:"customerFirstName"`
	CustomerLastName  string `json:"customerLastName"`
	CustomerAddress   string `json:"customerAddress"`
	CustomerCountry   string `json:"customerCountryCode"`
	CustomerCity      string `json:"customerCity"`
	CustomerZipCode   string `json:"customerZipCode"`
	CustomerPhone     string `json:"customerPhone"`
	CustomerIP        string `json:"customerIP"`
	RedirectURL       string `json:"redirectUrl"`
	CallbackURL       string `json:"callbackUrl"`
	CheckoutURL       string `json:"checkoutUrl"`
	Signature         string `json:"signature"`
}

// DepositResult is the success half of a deposit response. DepositURL is the
// hosted payment page the payer is redirected to.
type DepositResult struct {
	DepositURL       string `json:"depositUrl"`
	MerchantOrderID  string `json:"merchantOrderID"`
	ProcessorOrderID string `json:"orderID"`
}

// OrderStatusRequest identifies an order for a status query.
type OrderStatusRequest struct {
	MerchantOrderID  string
	ProcessorOrderID string
}

// OrderStatusResult is a processor status response.
type OrderStatusResult struct {
	Status           string `json:"status"`
	MerchantOrderID  string `json:"merchantOrderID"`
	ProcessorOrderID string `json:"orderID"`
	ErrorMessage     string `json:"errorMessage,omitempty"`
}

// CallbackNotification is the payload the processor posts to the callback
// endpoint once an order changes state on its side.
type CallbackNotification struct {
	Type             string `json:"type"`
	Status           string `json:"status"`
	ErrorMessage     string `json:"errorMessage"`
	EndpointID       string `json:"endpointID"`
	ProcessorOrderID string `json:"orderID"`
	MerchantOrderID  string `json:"merchantOrderID"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	CustomerEmail    string `json:"customerEmail"`
	Signature        string `json:"signature"`
}
