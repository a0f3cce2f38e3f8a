package zota

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// SignDeposit produces the deposit request signature:
// SHA-256 over endpointID + merchantOrderID + orderAmount + customerEmail + secret.
func SignDeposit(endpointID, merchantOrderID, orderAmount, customerEmail, secret string) string {
	return sha256Hex(endpointID + merchantOrderID + orderAmount + customerEmail + secret)
}

// SignOrderStatus produces the status query signature:
// SHA-256 over merchantID + merchantOrderID + orderID + timestamp + secret.
func SignOrderStatus(merchantID, merchantOrderID, orderID, timestamp, secret string) string {
	return sha256Hex(merchantID + merchantOrderID + orderID + timestamp + secret)
}

// SignCallback produces the signature the processor attaches to callback
// notifications: SHA-256 over endpointID + orderID + merchantOrderID + status
// + amount + customerEmail + secret.
func SignCallback(n *CallbackNotification, secret string) string {
	return sha256Hex(n.EndpointID + n.ProcessorOrderID + n.MerchantOrderID + n.Status + n.Amount + n.CustomerEmail + secret)
}

// VerifyCallback checks a callback notification's signature against the
// merchant secret using a constant-time comparison.
func VerifyCallback(n *CallbackNotification, secret string) error {
	if n.Signature == "" {
		return fmt.Errorf("callback carries no signature")
	}
	expected := SignCallback(n, secret)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.Signature)) != 1 {
		return fmt.Errorf("callback signature mismatch")
	}
	return nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
