package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseAmount parses and validates a monetary amount. The deposit API rejects
// zero and negative amounts, so those fail here before any request is built.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", d)
	}
	return d, nil
}

// FormatAmount renders an amount in the two-decimal wire format the deposit
// API expects, e.g. "49.99".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
