package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"grabbi/internal/model"
)

const orderColumns = `id, session_id, franchise_id, status, items, subtotal, delivery_fee,
		       total, points_earned, customer_lat, customer_lng, placed_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateOrder stores a new order.
func (db *DB) CreateOrder(ctx context.Context, o *model.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.PlacedAt
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.SessionID, o.FranchiseID, string(o.Status), string(items),
		o.Subtotal, o.DeliveryFee, o.Total, o.PointsEarned,
		nullFloat(o.CustomerLat), nullFloat(o.CustomerLng), o.PlacedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrder returns the order with id or ErrNotFound.
func (db *DB) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	row := db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders returns a session's orders, newest first.
func (db *DB) ListOrders(ctx context.Context, sessionID string, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE session_id = ?
		ORDER BY placed_at DESC, id DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus sets the status of an order. Returns ErrNotFound for unknown ids.
func (db *DB) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), at, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	var status, items string
	var lat, lng sql.NullFloat64
	err := row.Scan(&o.ID, &o.SessionID, &o.FranchiseID, &status, &items,
		&o.Subtotal, &o.DeliveryFee, &o.Total, &o.PointsEarned,
		&lat, &lng, &o.PlacedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	if err := json.Unmarshal([]byte(items), &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if lat.Valid {
		o.CustomerLat = &lat.Float64
	}
	if lng.Valid {
		o.CustomerLng = &lng.Float64
	}
	return &o, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
