package service

import (
	"context"
	"strings"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/models"
	"github.com/zotapay/deposit-gateway/internal/observability"
	"go.uber.org/zap"
)

// orderTransitions captures the forward-only payment state machine. Expired
// orders accept late settlement; paid and failed accept nothing.
var orderTransitions = map[string]map[string]struct{}{
	domain.OrderStatusNew: {
		domain.OrderStatusPending: {},
		domain.OrderStatusPaid:    {},
		domain.OrderStatusFailed:  {},
	},
	domain.OrderStatusPending: {
		domain.OrderStatusPaid:    {},
		domain.OrderStatusFailed:  {},
		domain.OrderStatusExpired: {},
	},
	domain.OrderStatusExpired: {
		domain.OrderStatusPaid:   {},
		domain.OrderStatusFailed: {},
	},
	domain.OrderStatusPaid:   {},
	domain.OrderStatusFailed: {},
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func canTransition(current, next string) bool {
	nextStates, ok := orderTransitions[normalizeStatus(current)]
	if !ok {
		return false
	}
	_, ok = nextStates[normalizeStatus(next)]
	return ok
}

// applyOrderTransition moves an order to the next status using a conditional
// write keyed on the caller's view of the current status. It reports whether
// the order actually changed. Replays of the same status are silent no-ops;
// disagreeing terminal writes surface as TransitionConflict and are never
// applied.
func applyOrderTransition(ctx context.Context, store OrderStore, audit *AuditService, order *models.Order, next string) (bool, error) {
	next = normalizeStatus(next)
	current := normalizeStatus(order.Status)

	for attempt := 0; attempt < 2; attempt++ {
		if current == next {
			return false, nil
		}

		if !canTransition(current, next) {
			if domain.IsTerminalStatus(current) && domain.IsTerminalStatus(next) {
				conflict := &domain.TransitionConflict{OrderID: order.ID, Current: current, Next: next}
				observability.IncrementTransitionConflict()
				zap.L().Error("conflicting terminal transition flagged for manual review",
					zap.Int64("order_id", order.ID),
					zap.String("current", current),
					zap.String("next", next),
				)
				audit.Note(ctx, order.ID, "Transition conflict: order is %s but %s was reported. Flagged for manual review.", current, next)
				return false, conflict
			}
			// Stale non-final report for a settled order, nothing to do.
			zap.L().Debug("ignoring stale status transition",
				zap.Int64("order_id", order.ID),
				zap.String("current", current),
				zap.String("next", next),
			)
			return false, nil
		}

		changed, err := store.TransitionStatus(ctx, order.ID, current, next)
		if err != nil {
			return false, err
		}
		if changed {
			order.Status = next
			return true, nil
		}

		// A concurrent writer moved the order first; re-read and re-evaluate
		// against its outcome.
		fresh, err := store.GetOrder(ctx, order.ID)
		if err != nil {
			return false, err
		}
		order.Status = fresh.Status
		current = normalizeStatus(fresh.Status)
	}

	return false, nil
}
