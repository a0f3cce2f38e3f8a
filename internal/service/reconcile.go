package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/merchant"
	"github.com/zotapay/deposit-gateway/internal/models"
	"github.com/zotapay/deposit-gateway/internal/observability"
	"github.com/zotapay/deposit-gateway/internal/zota"
	"go.uber.org/zap"
)

// ReconcileService drives order status transitions from processor callbacks,
// operator-triggered status checks and the scheduled sweep. All entry paths
// feed the same transition logic.
type ReconcileService struct {
	store    OrderStore
	gateway  zota.Gateway
	merchant *merchant.Provider
	audit    *AuditService
	now      func() time.Time
}

func NewReconcileService(store OrderStore, gw zota.Gateway, provider *merchant.Provider) *ReconcileService {
	return &ReconcileService{
		store:    store,
		gateway:  gw,
		merchant: provider,
		audit:    NewAuditService(store),
		now:      time.Now,
	}
}

// CallbackOutcome reports how a callback notification was handled.
type CallbackOutcome struct {
	OrderID   int64  `json:"order_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Changed   bool   `json:"changed"`
	Discarded bool   `json:"discarded,omitempty"`
}

// HandleCallback processes an asynchronous payment notification. Payloads
// that fail signature verification are rejected with ValidationError and
// change nothing. Callbacks for unknown orders are logged and discarded
// without error so the processor stops retrying. Replaying an identical
// callback is a no-op.
func (s *ReconcileService) HandleCallback(ctx context.Context, payload []byte) (*CallbackOutcome, error) {
	var notification zota.CallbackNotification
	if err := json.Unmarshal(payload, &notification); err != nil {
		return nil, &domain.ValidationError{Reason: fmt.Sprintf("malformed payload: %v", err)}
	}

	cfg, err := s.merchant.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	if err := zota.VerifyCallback(&notification, cfg.SecretKey); err != nil {
		observability.IncrementCallback("invalid_signature")
		zap.L().Warn("callback signature rejected",
			zap.String("merchant_order_id", notification.MerchantOrderID),
			zap.Error(err),
		)
		return nil, &domain.ValidationError{Reason: err.Error()}
	}

	order, err := s.store.GetOrderByMerchantOrderID(ctx, notification.MerchantOrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		observability.IncrementCallback("unknown_order")
		zap.L().Warn("callback for unknown order discarded",
			zap.String("merchant_order_id", notification.MerchantOrderID),
			zap.String("processor_order_id", notification.ProcessorOrderID),
		)
		return &CallbackOutcome{Discarded: true}, nil
	}
	if err != nil {
		return nil, err
	}

	next := domain.OrderStatusFromProcessor(notification.Status)
	changed, err := applyOrderTransition(ctx, s.store, s.audit, order, next)
	if err != nil {
		var conflict *domain.TransitionConflict
		if errors.As(err, &conflict) {
			observability.IncrementCallback("conflict")
		}
		return nil, err
	}

	if changed {
		detail := notification.Status
		if notification.ErrorMessage != "" {
			detail = fmt.Sprintf("%s (%s)", notification.Status, notification.ErrorMessage)
		}
		s.audit.Note(ctx, order.ID, "Payment callback: %s. Order ID #%s / Merchant Order ID #%s",
			detail, notification.ProcessorOrderID, notification.MerchantOrderID)
	}

	observability.IncrementCallback("processed")
	return &CallbackOutcome{OrderID: order.ID, Status: order.Status, Changed: changed}, nil
}

// StatusCheckResult reports a synchronous status lookup.
type StatusCheckResult struct {
	OrderID          int64  `json:"order_id"`
	Status           string `json:"status"`
	ProcessorStatus  string `json:"processor_status"`
	MerchantOrderID  string `json:"merchant_order_id"`
	ProcessorOrderID string `json:"processor_order_id"`
	Changed          bool   `json:"changed"`
}

// CheckStatus performs a live status lookup for one order and applies any
// resulting transition. Source labels the audit note ("administration",
// "scheduled check"). A missing remote order is a reported, non-fatal
// condition: an audit note is written and the status left untouched.
func (s *ReconcileService) CheckStatus(ctx context.Context, orderID int64, source string) (*StatusCheckResult, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Submitted() {
		s.audit.Note(ctx, order.ID, "Order Status request failed. Maybe order not yet sent to the processor.")
		return nil, &domain.LookupError{OrderID: order.ID, Reason: "order was never submitted"}
	}

	result, err := s.gateway.OrderStatus(ctx, &zota.OrderStatusRequest{
		MerchantOrderID:  order.MerchantOrderID,
		ProcessorOrderID: order.ProcessorOrderID,
	})
	if err != nil {
		s.audit.Note(ctx, order.ID, "Order Status request failed: %v", err)
		return nil, &domain.LookupError{OrderID: order.ID, Reason: err.Error()}
	}

	status := result.Status
	if status == "" {
		status = result.ErrorMessage
	}
	s.audit.Note(ctx, order.ID, "Order Status request from %s: %s. Order ID #%s / Merchant Order ID #%s",
		source, status, result.ProcessorOrderID, result.MerchantOrderID)

	next := domain.OrderStatusFromProcessor(result.Status)
	changed, err := applyOrderTransition(ctx, s.store, s.audit, order, next)
	if err != nil {
		return nil, err
	}

	return &StatusCheckResult{
		OrderID:          order.ID,
		Status:           order.Status,
		ProcessorStatus:  result.Status,
		MerchantOrderID:  order.MerchantOrderID,
		ProcessorOrderID: order.ProcessorOrderID,
		Changed:          changed,
	}, nil
}

// ReturnResolution is what the payer sees when coming back from the hosted
// payment page.
type ReturnResolution struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
	Final   bool   `json:"final"`
}

// ResolveReturn decides the post-payment message when the payer's browser
// returns. It never assumes success from the redirect alone: unless the order
// already settled, the processor is re-queried, falling back to the
// last-known status when the query fails.
func (s *ReconcileService) ResolveReturn(ctx context.Context, orderID int64) (*ReturnResolution, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !domain.IsTerminalStatus(order.Status) && order.Submitted() {
		if _, err := s.CheckStatus(ctx, orderID, "payer return"); err != nil {
			var lookupErr *domain.LookupError
			if !errors.As(err, &lookupErr) {
				return nil, err
			}
			zap.L().Warn("return-path status refresh failed, using last known status",
				zap.Int64("order_id", orderID),
				zap.Error(err),
			)
		}
		if order, err = s.store.GetOrder(ctx, orderID); err != nil {
			return nil, err
		}
	}

	return &ReturnResolution{
		OrderID: order.ID,
		Status:  order.Status,
		Final:   domain.IsTerminalStatus(order.Status),
	}, nil
}

// SweepExpired re-checks pending orders whose expiration window has passed.
// Orders the processor still reports as non-final transition to expired.
// Individual failures are logged and do not abort the sweep.
func (s *ReconcileService) SweepExpired(ctx context.Context, batchSize int32) error {
	orders, err := s.store.ListExpiredPending(ctx, s.now(), batchSize)
	if err != nil {
		return fmt.Errorf("list expired pending orders: %w", err)
	}

	for i := range orders {
		order := &orders[i]
		if err := s.sweepOne(ctx, order); err != nil {
			zap.L().Error("sweep order failed",
				zap.Int64("order_id", order.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *ReconcileService) sweepOne(ctx context.Context, order *models.Order) error {
	result, err := s.CheckStatus(ctx, order.ID, "scheduled check")
	if err != nil {
		// Leave the order pending; the next sweep retries the lookup.
		return err
	}
	if result.Status != domain.OrderStatusPending {
		return nil
	}

	order.Status = result.Status
	changed, err := applyOrderTransition(ctx, s.store, s.audit, order, domain.OrderStatusExpired)
	if err != nil {
		return err
	}
	if changed {
		s.audit.Note(ctx, order.ID, "Payment expired: no approval within the waiting window.")
	}
	return nil
}
