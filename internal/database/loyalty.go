package database

import (
	"context"
	"fmt"

	"grabbi/internal/loyalty"
)

// AddLoyaltyEntry appends a history entry and returns its id.
func (db *DB) AddLoyaltyEntry(ctx context.Context, e loyalty.Entry) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO loyalty_history (session_id, type, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, string(e.Type), e.Amount, e.Description, e.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert loyalty entry: %w", err)
	}
	return res.LastInsertId()
}

// ListLoyaltyHistory returns entries for a session, newest first.
func (db *DB) ListLoyaltyHistory(ctx context.Context, sessionID string, limit int) ([]loyalty.Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, session_id, type, amount, description, created_at
		FROM loyalty_history
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []loyalty.Entry
	for rows.Next() {
		var e loyalty.Entry
		var typ string
		if err := rows.Scan(&e.ID, &e.SessionID, &typ, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = loyalty.EntryType(typ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
