package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/service"
	"go.uber.org/zap"
)

// DepositHandler accepts checkout submissions and starts the hosted payment
// flow.
type DepositHandler struct {
	depositSvc *service.DepositService
}

func NewDepositHandler(depositSvc *service.DepositService) *DepositHandler {
	return &DepositHandler{depositSvc: depositSvc}
}

// CreateDeposit handles POST /v1/deposits.
// A processor rejection comes back as a 422 carrying the displayable
// "(code) message" pair; the caller keeps its checkout state.
func (h *DepositHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req service.CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "invalid JSON body")
		return
	}

	resp, err := h.depositSvc.CreateDeposit(r.Context(), &req)
	if err != nil {
		h.respondDepositError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, resp)
}

func (h *DepositHandler) respondDepositError(w http.ResponseWriter, r *http.Request, err error) {
	var subErr *domain.SubmissionError
	var cfgErr *domain.ConfigurationError

	switch {
	case errors.Is(err, domain.ErrUnsupportedCurrency):
		RespondError(w, r, http.StatusUnprocessableEntity, "deposit/unsupported-currency", err.Error())
	case errors.As(err, &subErr):
		RespondError(w, r, http.StatusUnprocessableEntity, "deposit/rejected", subErr.Display())
	case errors.As(err, &cfgErr):
		zap.L().Error("deposit blocked by merchant configuration", zap.Error(cfgErr))
		RespondError(w, r, http.StatusServiceUnavailable, "deposit/misconfigured", "payment could not be started")
	default:
		if status, problemType, message, ok := mapDBError(err); ok {
			RespondError(w, r, status, problemType, message)
			return
		}
		zap.L().Error("create deposit failed", zap.Error(err))
		RespondError(w, r, http.StatusBadRequest, "deposit/invalid-request", err.Error())
	}
}
