// Package memstore provides an in-memory OrderStore and SettingsStore for
// tests that exercise the reconciliation logic without Postgres.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/models"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]*models.Order
	notes    map[int64][]models.OrderNote
	noteID   int64
	settings map[string]string
}

func New() *Store {
	return &Store{
		nextID:   1000,
		orders:   make(map[int64]*models.Order),
		notes:    make(map[int64][]models.OrderNote),
		settings: make(map[string]string),
	}
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	o.ID = s.nextID
	o.Status = domain.OrderStatusNew
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	clone := *o
	s.orders[o.ID] = &clone
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *Store) GetOrderByMerchantOrderID(ctx context.Context, merchantOrderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.MerchantOrderID == merchantOrderID {
			clone := *o
			return &clone, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (s *Store) AttachProcessorIDs(ctx context.Context, id int64, merchantOrderID, processorOrderID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.MerchantOrderID = merchantOrderID
	o.ProcessorOrderID = processorOrderID
	o.ExpiresAt = &expiresAt
	o.UpdatedAt = time.Now()
	return nil
}

func (s *Store) TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

func (s *Store) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Order
	for _, o := range s.orders {
		if o.Status != domain.OrderStatusPending || o.ExpiresAt == nil || !o.ExpiresAt.Before(cutoff) {
			continue
		}
		out = append(out, *o)
		if int32(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) AddOrderNote(ctx context.Context, orderID int64, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.noteID++
	s.notes[orderID] = append(s.notes[orderID], models.OrderNote{
		ID:        s.noteID,
		OrderID:   orderID,
		Note:      note,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *Store) ListOrderNotes(ctx context.Context, orderID int64) ([]models.OrderNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]models.OrderNote, len(s.notes[orderID]))
	copy(notes, s.notes[orderID])
	return notes, nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *Store) PutSettingIfAbsent(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settings[key]; !ok {
		s.settings[key] = value
	}
	return nil
}

// SetOrderStatus force-sets an order status, bypassing the transition rules.
// Test setup only.
func (s *Store) SetOrderStatus(id int64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Status = status
	}
}

// SetExpiresAt force-sets an order expiration. Test setup only.
func (s *Store) SetExpiresAt(id int64, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.ExpiresAt = &t
	}
}
