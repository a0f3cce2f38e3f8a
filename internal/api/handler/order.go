package handler

import (
	"errors"
	"net/http"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/service"
	"go.uber.org/zap"
)

// OrderHandler serves order lookups, the redirect-return page and the
// operator status-check action.
type OrderHandler struct {
	store        service.OrderStore
	reconcileSvc *service.ReconcileService
}

func NewOrderHandler(store service.OrderStore, reconcileSvc *service.ReconcileService) *OrderHandler {
	return &OrderHandler{store: store, reconcileSvc: reconcileSvc}
}

// GetOrder handles GET /v1/admin/orders/{id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "order/invalid-id", err.Error())
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if errors.Is(err, domain.ErrOrderNotFound) {
		RespondError(w, r, http.StatusNotFound, "order/not-found", "order not found")
		return
	}
	if err != nil {
		zap.L().Error("get order failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "order/lookup-failed", "order lookup failed")
		return
	}

	notes, err := h.store.ListOrderNotes(r.Context(), id)
	if err != nil {
		zap.L().Error("list order notes failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "order/lookup-failed", "order lookup failed")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"order": order,
		"notes": notes,
	})
}

// Return handles GET /v1/orders/{id}/return, the redirect target of the
// hosted payment page. The redirect by itself proves nothing; the current
// status decides what the payer sees.
func (h *OrderHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "order/invalid-id", err.Error())
		return
	}

	resolution, err := h.reconcileSvc.ResolveReturn(r.Context(), id)
	if errors.Is(err, domain.ErrOrderNotFound) {
		RespondError(w, r, http.StatusNotFound, "order/not-found", "order not found")
		return
	}
	if err != nil {
		zap.L().Error("resolve return failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "order/return-failed", "could not resolve payment status")
		return
	}

	RespondJSON(w, http.StatusOK, resolution)
}

// CheckStatus handles POST /v1/admin/orders/{id}/status-check.
// A failed lookup is a reported, non-fatal condition: the audit note is
// already written and the order status untouched.
func (h *OrderHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "order/invalid-id", err.Error())
		return
	}

	result, err := h.reconcileSvc.CheckStatus(r.Context(), id, "administration")
	if err != nil {
		var lookupErr *domain.LookupError
		var conflict *domain.TransitionConflict
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			RespondError(w, r, http.StatusNotFound, "order/not-found", "order not found")
		case errors.As(err, &lookupErr):
			RespondError(w, r, http.StatusUnprocessableEntity, "order/status-check-failed", lookupErr.Error())
		case errors.As(err, &conflict):
			RespondError(w, r, http.StatusConflict, "order/transition-conflict", conflict.Error())
		default:
			zap.L().Error("status check failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "order/status-check-failed", "status check failed")
		}
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
