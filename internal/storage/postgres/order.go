package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lootcart/lootcart/internal/domain/order"
)

const (
	appendOrderSQL = `INSERT INTO orders (id, items, total_amount, discount_applied, final_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	countOrdersSQL = `SELECT COUNT(*) FROM orders`

	listOrdersSQL = `SELECT id, items, total_amount, discount_applied, final_amount, created_at
		FROM orders ORDER BY created_at, id`
)

var _ order.Ledger = (*OrderLedger)(nil)

// OrderLedger implements order.Ledger backed by PostgreSQL.
type OrderLedger struct {
	pool *pgxpool.Pool
}

// NewOrderLedger returns an OrderLedger that uses the given pool.
func NewOrderLedger(pool *pgxpool.Pool) *OrderLedger {
	return &OrderLedger{pool: pool}
}

// Append persists a completed order. Items are serialized to JSON for the
// JSONB column.
func (l *OrderLedger) Append(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	_, err = l.pool.Exec(ctx, appendOrderSQL,
		o.ID, itemsJSON, o.TotalAmount, o.DiscountApplied, o.FinalAmount, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending order %q: %w", o.ID, err)
	}
	return nil
}

// Count returns the number of recorded orders.
func (l *OrderLedger) Count(ctx context.Context) (int, error) {
	var count int
	if err := l.pool.QueryRow(ctx, countOrdersSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return count, nil
}

// All returns the full ledger in append order.
func (l *OrderLedger) All(ctx context.Context) ([]order.Order, error) {
	rows, err := l.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
	)
	err := row.Scan(&o.ID, &itemsJSON, &o.TotalAmount, &o.DiscountApplied, &o.FinalAmount, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	return o, nil
}
