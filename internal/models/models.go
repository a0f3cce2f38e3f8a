package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer carries the payer contact fields forwarded to the deposit API.
type Customer struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Address     string `json:"address"`
	CountryCode string `json:"country_code"`
	City        string `json:"city"`
	ZipCode     string `json:"zip_code"`
	Phone       string `json:"phone"`
	IP          string `json:"ip"`
}

// Order is a deposit order tracked through the reconciliation workflow.
// MerchantOrderID and ProcessorOrderID are assigned once at submission and
// immutable afterwards.
type Order struct {
	ID               int64           `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	MerchantOrderID  string          `json:"merchant_order_id,omitempty"`
	ProcessorOrderID string          `json:"processor_order_id,omitempty"`
	Customer         Customer        `json:"customer"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
}

// Submitted reports whether the order has been sent to the processor.
func (o *Order) Submitted() bool {
	return o.MerchantOrderID != "" || o.ProcessorOrderID != ""
}

// OrderNote is a human-readable audit entry appended to an order.
type OrderNote struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}
