package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/merchant"
	"github.com/zotapay/deposit-gateway/internal/models"
	"github.com/zotapay/deposit-gateway/internal/testutil/memstore"
	"github.com/zotapay/deposit-gateway/internal/zota"
)

const (
	testSecretKey = "test-secret-key"
	testStoreURL  = "https://shop.example.com"
)

type testEnv struct {
	store     *memstore.Store
	gateway   *zota.MockGateway
	provider  *merchant.Provider
	deposit   *DepositService
	reconcile *ReconcileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memstore.New()
	gateway := zota.NewMockGateway()
	provider := merchant.NewProvider(merchant.Credentials{
		Mode:       merchant.ModeTest,
		MerchantID: "MERCHANT-1",
		SecretKey:  testSecretKey,
		Endpoints: map[string]string{
			"USD": "503364",
			"EUR": "503365",
		},
		StoreURL: testStoreURL,
	}, store)

	return &testEnv{
		store:     store,
		gateway:   gateway,
		provider:  provider,
		deposit:   NewDepositService(store, gateway, provider, testStoreURL, time.Hour),
		reconcile: NewReconcileService(store, gateway, provider),
	}
}

func testCustomer() models.Customer {
	return models.Customer{
		Email:       "payer@example.com",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Address:     "12 Analytical Row",
		CountryCode: "GB",
		City:        "London",
		ZipCode:     "EC1A",
		Phone:       "+442012345678",
		IP:          "203.0.113.7",
	}
}

// submitDeposit creates and submits an order, returning it in status pending.
func (e *testEnv) submitDeposit(t *testing.T) *models.Order {
	t.Helper()

	resp, err := e.deposit.CreateDeposit(context.Background(), &CreateDepositRequest{
		Amount:   "100.00",
		Currency: "USD",
		Customer: testCustomer(),
	})
	require.NoError(t, err)

	order, err := e.store.GetOrder(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, order.Status)
	return order
}

// signedCallback builds a callback notification for the order carrying a
// valid signature.
func (e *testEnv) signedCallback(order *models.Order, processorStatus string) *zota.CallbackNotification {
	n := &zota.CallbackNotification{
		Type:             "SALE",
		Status:           processorStatus,
		EndpointID:       "503364",
		ProcessorOrderID: order.ProcessorOrderID,
		MerchantOrderID:  order.MerchantOrderID,
		Amount:           domain.FormatAmount(order.Amount),
		Currency:         order.Currency,
		CustomerEmail:    order.Customer.Email,
	}
	n.Signature = zota.SignCallback(n, testSecretKey)
	return n
}

// countNotes returns how many audit notes on the order contain the substring.
func (e *testEnv) countNotes(t *testing.T, orderID int64, substr string) int {
	t.Helper()

	notes, err := e.store.ListOrderNotes(context.Background(), orderID)
	require.NoError(t, err)

	count := 0
	for _, note := range notes {
		if strings.Contains(note.Note, substr) {
			count++
		}
	}
	return count
}
