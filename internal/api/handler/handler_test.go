package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/merchant"
	"github.com/zotapay/deposit-gateway/internal/models"
	"github.com/zotapay/deposit-gateway/internal/service"
	"github.com/zotapay/deposit-gateway/internal/testutil/memstore"
	"github.com/zotapay/deposit-gateway/internal/zota"
)

const handlerTestSecret = "handler-test-secret"

type handlerEnv struct {
	store   *memstore.Store
	gateway *zota.MockGateway
	router  chi.Router
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	store := memstore.New()
	gateway := zota.NewMockGateway()
	provider := merchant.NewProvider(merchant.Credentials{
		Mode:       merchant.ModeTest,
		MerchantID: "MERCHANT-1",
		SecretKey:  handlerTestSecret,
		Endpoints:  map[string]string{"USD": "503364"},
		StoreURL:   "https://shop.example.com",
	}, store)

	depositSvc := service.NewDepositService(store, gateway, provider, "https://shop.example.com", time.Hour)
	reconcileSvc := service.NewReconcileService(store, gateway, provider)

	depositH := NewDepositHandler(depositSvc)
	callbackH := NewCallbackHandler(reconcileSvc)
	orderH := NewOrderHandler(store, reconcileSvc)

	r := chi.NewRouter()
	r.Post("/v1/deposits", depositH.CreateDeposit)
	r.Get("/v1/orders/{id}/return", orderH.Return)
	r.Post("/v1/gateway/{gateway_id}/callback", callbackH.HandleCallback)
	r.Get("/v1/admin/orders/{id}", orderH.GetOrder)
	r.Post("/v1/admin/orders/{id}/status-check", orderH.CheckStatus)

	return &handlerEnv{store: store, gateway: gateway, router: r}
}

func (e *handlerEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func depositBody() map[string]any {
	return map[string]any{
		"amount":   "100.00",
		"currency": "USD",
		"customer": models.Customer{
			Email:     "payer@example.com",
			FirstName: "Ada",
			LastName:  "Lovelace",
		},
	}
}

func (e *handlerEnv) createDeposit(t *testing.T) *service.CreateDepositResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/v1/deposits", depositBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp service.CreateDepositResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return &resp
}

func TestCreateDepositEndpoint(t *testing.T) {
	env := newHandlerEnv(t)

	resp := env.createDeposit(t)
	assert.Equal(t, domain.OrderStatusPending, resp.Status)
	assert.NotEmpty(t, resp.DepositURL)
	assert.True(t, strings.HasSuffix(resp.MerchantOrderID, fmt.Sprintf("-test-%d", resp.OrderID)))
}

func TestCreateDepositEndpointRejectsBadRequests(t *testing.T) {
	env := newHandlerEnv(t)

	t.Run("invalid json", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/deposits", []byte("{nope"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unsupported currency", func(t *testing.T) {
		body := depositBody()
		body["currency"] = "GBP"
		rec := env.do(t, http.MethodPost, "/v1/deposits", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("processor rejection", func(t *testing.T) {
		env.gateway.FailureRate = 1.0
		defer func() { env.gateway.FailureRate = 0 }()

		rec := env.do(t, http.MethodPost, "/v1/deposits", depositBody())
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "(103) Invalid amount")
	})
}

func signedCallbackBody(t *testing.T, merchantOrderID, processorOrderID, status string) []byte {
	t.Helper()

	n := &zota.CallbackNotification{
		Status:           status,
		ProcessorOrderID: processorOrderID,
		MerchantOrderID:  merchantOrderID,
		Amount:           "100.00",
		CustomerEmail:    "payer@example.com",
	}
	n.Signature = zota.SignCallback(n, handlerTestSecret)

	payload, err := json.Marshal(n)
	require.NoError(t, err)
	return payload
}

func TestCallbackEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	resp := env.createDeposit(t)
	body := signedCallbackBody(t, resp.MerchantOrderID, resp.ProcessorOrderID, domain.ProcessorStatusApproved)

	rec := env.do(t, http.MethodPost, "/v1/gateway/zota/callback", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	order, err := env.store.GetOrder(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
}

func TestCallbackEndpointUnknownGateway(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/gateway/other/callback", []byte("{}"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackEndpointRejectsBadSignature(t *testing.T) {
	env := newHandlerEnv(t)
	resp := env.createDeposit(t)

	n := &zota.CallbackNotification{
		Status:          domain.ProcessorStatusApproved,
		MerchantOrderID: resp.MerchantOrderID,
		Signature:       "forged",
	}
	payload, err := json.Marshal(n)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/v1/gateway/zota/callback", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	order, err := env.store.GetOrder(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestCallbackEndpointDiscardsUnknownOrder(t *testing.T) {
	env := newHandlerEnv(t)
	body := signedCallbackBody(t, "never-seen", "PROC-404", domain.ProcessorStatusApproved)

	rec := env.do(t, http.MethodPost, "/v1/gateway/zota/callback", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"discarded":true`)
}

func TestCallbackEndpointConflict(t *testing.T) {
	env := newHandlerEnv(t)
	resp := env.createDeposit(t)

	rec := env.do(t, http.MethodPost, "/v1/gateway/zota/callback",
		signedCallbackBody(t, resp.MerchantOrderID, resp.ProcessorOrderID, domain.ProcessorStatusApproved))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/gateway/zota/callback",
		signedCallbackBody(t, resp.MerchantOrderID, resp.ProcessorOrderID, domain.ProcessorStatusDeclined))
	assert.Equal(t, http.StatusConflict, rec.Code)

	order, err := env.store.GetOrder(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
}

func TestReturnEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	resp := env.createDeposit(t)
	env.gateway.SetStatus(resp.MerchantOrderID, domain.ProcessorStatusApproved)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/v1/orders/%d/return", resp.OrderID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res service.ReturnResolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, domain.OrderStatusPaid, res.Status)
	assert.True(t, res.Final)
}

func TestReturnEndpointUnknownOrder(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/orders/999999/return", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrderEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	resp := env.createDeposit(t)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/v1/admin/orders/%d", resp.OrderID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), resp.MerchantOrderID)
	assert.Contains(t, rec.Body.String(), "Deposit request accepted")
}

func TestStatusCheckEndpoint(t *testing.T) {
	env := newHandlerEnv(t)
	resp := env.createDeposit(t)
	env.gateway.SetStatus(resp.MerchantOrderID, domain.ProcessorStatusApproved)

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/v1/admin/orders/%d/status-check", resp.OrderID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result service.StatusCheckResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Changed)
	assert.Equal(t, domain.OrderStatusPaid, result.Status)
}

func TestStatusCheckEndpointUnsubmittedOrder(t *testing.T) {
	env := newHandlerEnv(t)

	order := &models.Order{Currency: "USD"}
	require.NoError(t, env.store.CreateOrder(context.Background(), order))

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/v1/admin/orders/%d/status-check", order.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrderIDParamValidation(t *testing.T) {
	env := newHandlerEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/admin/orders/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
