package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("49.99")
	require.NoError(t, err)
	assert.Equal(t, "49.99", FormatAmount(d))

	d, err = ParseAmount("100")
	require.NoError(t, err)
	assert.Equal(t, "100.00", FormatAmount(d))

	for _, bad := range []string{"", "abc", "0", "0.00", "-5.00"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsSupportedCurrency(t *testing.T) {
	assert.True(t, IsSupportedCurrency("USD"))
	assert.True(t, IsSupportedCurrency("usd"))
	assert.True(t, IsSupportedCurrency(" eur "))
	assert.False(t, IsSupportedCurrency("GBP"))
	assert.False(t, IsSupportedCurrency(""))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(OrderStatusPaid))
	assert.True(t, IsTerminalStatus(OrderStatusFailed))
	assert.False(t, IsTerminalStatus(OrderStatusExpired))
	assert.False(t, IsTerminalStatus(OrderStatusPending))
	assert.False(t, IsTerminalStatus(OrderStatusNew))
}

func TestOrderStatusFromProcessor(t *testing.T) {
	tests := []struct {
		processor string
		want      string
	}{
		{ProcessorStatusApproved, OrderStatusPaid},
		{ProcessorStatusDeclined, OrderStatusFailed},
		{ProcessorStatusFiltered, OrderStatusFailed},
		{ProcessorStatusError, OrderStatusFailed},
		{ProcessorStatusCreated, OrderStatusPending},
		{ProcessorStatusProcessing, OrderStatusPending},
		{ProcessorStatusPending, OrderStatusPending},
		{ProcessorStatusUnknown, OrderStatusPending},
		{"approved", OrderStatusPaid},
		{"", OrderStatusPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OrderStatusFromProcessor(tt.processor), tt.processor)
	}
}

func TestSubmissionErrorDisplay(t *testing.T) {
	err := &SubmissionError{Code: "103", Message: "Invalid amount"}
	assert.Equal(t, "(103) Invalid amount", err.Display())
	assert.Contains(t, err.Error(), "(103) Invalid amount")
}
