package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when no order matches the given identifier.
	ErrOrderNotFound = errors.New("order not found")

	// ErrUnsupportedCurrency is returned when a deposit is attempted in a
	// currency outside SupportedCurrencies.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// ConfigurationError reports missing or invalid merchant configuration for
// the active mode. It is fatal to the checkout attempt.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("merchant configuration invalid: %s: %s", e.Field, e.Reason)
}

// SubmissionError reports a deposit request the processor rejected or could
// not be reached for. Code and Message are displayable to the payer.
type SubmissionError struct {
	Code    string
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("deposit submission failed: %s", e.Display())
}

// Display formats the error the way the checkout notice shows it.
func (e *SubmissionError) Display() string {
	return fmt.Sprintf("(%s) %s", e.Code, e.Message)
}

// ValidationError reports a callback payload that failed signature
// verification. It is never surfaced to the processor beyond a 401 and must
// not change persisted state.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("callback validation failed: %s", e.Reason)
}

// LookupError reports a status check that found no matching remote order,
// usually because the order was never submitted. Non-fatal.
type LookupError struct {
	OrderID int64
	Reason  string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("status lookup failed for order %d: %s", e.OrderID, e.Reason)
}

// TransitionConflict reports two reconciliation paths disagreeing on a
// terminal state. The losing write is rejected, logged and flagged for
// manual review, never silently applied.
type TransitionConflict struct {
	OrderID int64
	Current string
	Next    string
}

func (e *TransitionConflict) Error() string {
	return fmt.Sprintf("conflicting terminal transition for order %d: %s -> %s", e.OrderID, e.Current, e.Next)
}
