package zota

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumHex(t *testing.T, s string) string {
	t.Helper()
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestSignDeposit(t *testing.T) {
	got := SignDeposit("503364", "ab12cd-test-1001", "100.00", "payer@example.com", "secret")
	want := sumHex(t, "503364ab12cd-test-1001100.00payer@example.comsecret")
	assert.Equal(t, want, got)
}

func TestSignOrderStatus(t *testing.T) {
	got := SignOrderStatus("MERCHANT-1", "ab12cd-test-1001", "PROC-42", "1700000000", "secret")
	want := sumHex(t, "MERCHANT-1ab12cd-test-1001PROC-421700000000secret")
	assert.Equal(t, want, got)
}

func TestVerifyCallback(t *testing.T) {
	n := &CallbackNotification{
		Status:           "APPROVED",
		EndpointID:       "503364",
		ProcessorOrderID: "PROC-42",
		MerchantOrderID:  "ab12cd-test-1001",
		Amount:           "100.00",
		CustomerEmail:    "payer@example.com",
	}
	n.Signature = SignCallback(n, "secret")
	require.NoError(t, VerifyCallback(n, "secret"))

	t.Run("wrong secret", func(t *testing.T) {
		assert.Error(t, VerifyCallback(n, "other-secret"))
	})

	t.Run("tampered amount", func(t *testing.T) {
		tampered := *n
		tampered.Amount = "999.00"
		assert.Error(t, VerifyCallback(&tampered, "secret"))
	})

	t.Run("missing signature", func(t *testing.T) {
		unsigned := *n
		unsigned.Signature = ""
		assert.Error(t, VerifyCallback(&unsigned, "secret"))
	})
}
