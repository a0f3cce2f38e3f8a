package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/zotapay/deposit-gateway/internal/domain"
	"github.com/zotapay/deposit-gateway/internal/models"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so the same queries run
// inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for orders, order notes and gateway
// settings.
type Repository struct {
	db DBTX
}

func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, amount, currency, status, merchant_order_id, processor_order_id,
	customer_email, customer_first_name, customer_last_name, customer_address,
	customer_country, customer_city, customer_zip, customer_phone, customer_ip,
	created_at, updated_at, expires_at`

// CreateOrder inserts a new order in status new and fills in the generated id
// and timestamps.
func (r *Repository) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (
			amount, currency, status,
			customer_email, customer_first_name, customer_last_name,
			customer_address, customer_country, customer_city,
			customer_zip, customer_phone, customer_ip
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		o.Amount, o.Currency, domain.OrderStatusNew,
		o.Customer.Email, o.Customer.FirstName, o.Customer.LastName,
		o.Customer.Address, o.Customer.CountryCode, o.Customer.City,
		o.Customer.ZipCode, o.Customer.Phone, o.Customer.IP,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	o.Status = domain.OrderStatusNew
	return nil
}

// GetOrder fetches an order by its local identifier.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrder(r.db.QueryRow(ctx, query, id))
}

// GetOrderByMerchantOrderID fetches an order by the merchant order id sent to
// the processor.
func (r *Repository) GetOrderByMerchantOrderID(ctx context.Context, merchantOrderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE merchant_order_id = $1`
	return scanOrder(r.db.QueryRow(ctx, query, merchantOrderID))
}

// AttachProcessorIDs records the identifiers returned by a successful deposit
// submission together with the expiration timestamp. Re-submission overwrites
// rather than duplicating.
func (r *Repository) AttachProcessorIDs(ctx context.Context, id int64, merchantOrderID, processorOrderID string, expiresAt time.Time) error {
	query := `
		UPDATE orders
		SET merchant_order_id = $1, processor_order_id = $2, expires_at = $3, updated_at = NOW()
		WHERE id = $4
	`
	tag, err := r.db.Exec(ctx, query, merchantOrderID, processorOrderID, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to attach processor ids: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// TransitionStatus conditionally moves an order from one status to another.
// It reports false without error when the order was not in the expected
// status, which callers use to detect a concurrent writer.
func (r *Repository) TransitionStatus(ctx context.Context, id int64, from, to string) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	tag, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListExpiredPending returns pending orders whose expiration timestamp has
// passed, oldest first.
func (r *Repository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2
		ORDER BY expires_at ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, domain.OrderStatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired pending orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// AddOrderNote appends an audit note to an order.
func (r *Repository) AddOrderNote(ctx context.Context, orderID int64, note string) error {
	query := `INSERT INTO order_notes (order_id, note) VALUES ($1, $2)`
	if _, err := r.db.Exec(ctx, query, orderID, note); err != nil {
		return fmt.Errorf("failed to add order note: %w", err)
	}
	return nil
}

// ListOrderNotes returns all audit notes for an order, oldest first.
func (r *Repository) ListOrderNotes(ctx context.Context, orderID int64) ([]models.OrderNote, error) {
	query := `SELECT id, order_id, note, created_at FROM order_notes WHERE order_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order notes: %w", err)
	}
	defer rows.Close()

	var notes []models.OrderNote
	for rows.Next() {
		var n models.OrderNote
		if err := rows.Scan(&n.ID, &n.OrderID, &n.Note, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// GetSetting reads a persisted gateway setting. Missing keys return an empty
// value without error.
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, `SELECT value FROM gateway_settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// PutSettingIfAbsent persists a setting only when no value exists yet, which
// keeps first-writer-wins semantics under concurrent generation.
func (r *Repository) PutSettingIfAbsent(ctx context.Context, key, value string) error {
	query := `INSERT INTO gateway_settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`
	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to put setting %s: %w", key, err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	o := &models.Order{}
	var merchantOrderID, processorOrderID *string
	err := row.Scan(
		&o.ID, &o.Amount, &o.Currency, &o.Status, &merchantOrderID, &processorOrderID,
		&o.Customer.Email, &o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Address,
		&o.Customer.CountryCode, &o.Customer.City, &o.Customer.ZipCode, &o.Customer.Phone, &o.Customer.IP,
		&o.CreatedAt, &o.UpdatedAt, &o.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if merchantOrderID != nil {
		o.MerchantOrderID = *merchantOrderID
	}
	if processorOrderID != nil {
		o.ProcessorOrderID = *processorOrderID
	}
	return o, nil
}
