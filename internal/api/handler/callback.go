package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/service"
	"go.uber.org/zap"
)

// CallbackHandler receives payment notifications from the processor.
type CallbackHandler struct {
	reconcileSvc *service.ReconcileService
}

func NewCallbackHandler(reconcileSvc *service.ReconcileService) *CallbackHandler {
	return &CallbackHandler{reconcileSvc: reconcileSvc}
}

// HandleCallback handles GET/POST /v1/gateway/{gateway_id}/callback.
// Successful processing (including discarded unknown orders) replies 200 so
// the processor stops retrying. Signature failures reply 401 and change no
// state; conflicting terminal transitions reply 409 and are flagged for
// manual review.
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "gateway_id") != domain.GatewayID {
		RespondError(w, r, http.StatusNotFound, "callback/unknown-gateway", "unknown gateway")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "failed to read request body")
		return
	}

	outcome, err := h.reconcileSvc.HandleCallback(r.Context(), body)
	if err != nil {
		var validationErr *domain.ValidationError
		var conflict *domain.TransitionConflict
		switch {
		case errors.As(err, &validationErr):
			RespondError(w, r, http.StatusUnauthorized, "callback/invalid-signature", "callback rejected")
		case errors.As(err, &conflict):
			RespondError(w, r, http.StatusConflict, "callback/transition-conflict", conflict.Error())
		default:
			zap.L().Error("process callback failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "callback/processing-failed", "callback processing failed")
		}
		return
	}

	RespondJSON(w, http.StatusOK, outcome)
}
