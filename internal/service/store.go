package service

import (
	"context"
	"time"

	"github.com/zotapay/deposit-gateway/internal/models"
)

// OrderStore defines the minimal persistence contract required by services.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByMerchantOrderID(ctx context.Context, merchantOrderID string) (*models.Order, error)
	AttachProcessorIDs(ctx context.Context, id int64, merchantOrderID, processorOrderID string, expiresAt time.Time) error
	TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]models.Order, error)
	AddOrderNote(ctx context.Context, orderID int64, note string) error
	ListOrderNotes(ctx context.Context, orderID int64) ([]models.OrderNote, error)
}
