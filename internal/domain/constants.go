package domain

import "strings"

// GatewayID identifies this gateway on callback routes. The processor is
// configured to post notifications to the route carrying the same identifier.
const GatewayID = "zota"

// Order payment statuses.
const (
	OrderStatusNew     = "new"
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
	OrderStatusExpired = "expired"
)

// Processor-side order statuses as reported by the deposit API.
const (
	ProcessorStatusCreated    = "CREATED"
	ProcessorStatusProcessing = "PROCESSING"
	ProcessorStatusPending    = "PENDING"
	ProcessorStatusApproved   = "APPROVED"
	ProcessorStatusDeclined   = "DECLINED"
	ProcessorStatusFiltered   = "FILTERED"
	ProcessorStatusError      = "ERROR"
	ProcessorStatusUnknown    = "UNKNOWN"
)

// SupportedCurrencies is the set of currencies the deposit API accepts.
var SupportedCurrencies = []string{"USD", "EUR", "MYR", "VND", "THB", "IDR", "CNY"}

// IsSupportedCurrency reports whether the gateway can take deposits in the
// given ISO 4217 currency code.
func IsSupportedCurrency(currency string) bool {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	for _, c := range SupportedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether an order status accepts no further
// transitions. Expired orders may still settle late, so expired is not
// terminal.
func IsTerminalStatus(status string) bool {
	return status == OrderStatusPaid || status == OrderStatusFailed
}

// OrderStatusFromProcessor maps a processor status onto the local order
// status. Every non-final processor status maps to pending.
func OrderStatusFromProcessor(processorStatus string) string {
	switch strings.ToUpper(strings.TrimSpace(processorStatus)) {
	case ProcessorStatusApproved:
		return OrderStatusPaid
	case ProcessorStatusDeclined, ProcessorStatusFiltered, ProcessorStatusError:
		return OrderStatusFailed
	default:
		return OrderStatusPending
	}
}
