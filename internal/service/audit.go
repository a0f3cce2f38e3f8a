package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AuditService appends human-readable audit notes to orders. Notes are
// best-effort: a failed write is logged, never fatal to the calling path.
type AuditService struct {
	store OrderStore
}

func NewAuditService(store OrderStore) *AuditService {
	return &AuditService{store: store}
}

// Note appends a formatted audit note to an order.
func (s *AuditService) Note(ctx context.Context, orderID int64, format string, args ...any) {
	note := fmt.Sprintf(format, args...)
	if err := s.store.AddOrderNote(ctx, orderID, note); err != nil {
		zap.L().Error("write order note failed",
			zap.Int64("order_id", orderID),
			zap.String("note", note),
			zap.Error(err),
		)
	}
}
