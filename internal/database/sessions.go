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

// GetSession loads a session with its cart lines. Returns ErrNotFound for unknown ids.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, phase, intent, selected_franchise, pending_franchise,
		       cart_franchise_id, loyalty_points, created_at, updated_at
		FROM sessions
		WHERE id = ?`, id)

	var s model.Session
	var selected, pending sql.NullString
	err := row.Scan(&s.ID, &s.Phase, &s.Intent, &selected, &pending,
		&s.Cart.FranchiseID, &s.LoyaltyPoints, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if s.SelectedFranchise, err = decodeFranchise(selected); err != nil {
		return nil, fmt.Errorf("decode selected franchise: %w", err)
	}
	if s.PendingFranchise, err = decodeFranchise(pending); err != nil {
		return nil, fmt.Errorf("decode pending franchise: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT product_id, name, unit_price, quantity
		FROM cart_items
		WHERE session_id = ?
		ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, err
		}
		s.Cart.Items = append(s.Cart.Items, it)
	}
	return &s, rows.Err()
}

// SaveSession creates or replaces a session and its cart lines in one transaction.
func (db *DB) SaveSession(ctx context.Context, s *model.Session) error {
	selected, err := encodeFranchise(s.SelectedFranchise)
	if err != nil {
		return err
	}
	pending, err := encodeFranchise(s.PendingFranchise)
	if err != nil {
		return err
	}

	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, phase, intent, selected_franchise, pending_franchise,
		                      cart_franchise_id, loyalty_points, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			intent = excluded.intent,
			selected_franchise = excluded.selected_franchise,
			pending_franchise = excluded.pending_franchise,
			cart_franchise_id = excluded.cart_franchise_id,
			loyalty_points = excluded.loyalty_points,
			updated_at = excluded.updated_at`,
		s.ID, s.Phase, s.Intent, selected, pending,
		s.Cart.FranchiseID, s.LoyaltyPoints, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = ?`, s.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	for i, it := range s.Cart.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (session_id, product_id, name, unit_price, quantity, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, it.ProductID, it.Name, it.UnitPrice, it.Quantity, i)
		if err != nil {
			return fmt.Errorf("insert cart item %s: %w", it.ProductID, err)
		}
	}

	return tx.Commit()
}

// DeleteSession removes a session and its cart. Loyalty history is kept.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteStaleSessions deletes sessions not updated within olderThan.
// Returns the number of deleted rows.
func (db *DB) DeleteStaleSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func encodeFranchise(f *model.Franchise) (sql.NullString, error) {
	if f == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode franchise: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeFranchise(v sql.NullString) (*model.Franchise, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var f model.Franchise
	if err := json.Unmarshal([]byte(v.String), &f); err != nil {
		return nil, err
	}
	return &f, nil
}
