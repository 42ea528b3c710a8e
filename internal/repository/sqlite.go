package repository

import (
	"context"
	"errors"

	"grabbi/internal/database"
	"grabbi/internal/model"
)

// SQLiteSessionRepository adapts database.DB to SessionRepository.
type SQLiteSessionRepository struct {
	db *database.DB
}

func NewSQLiteSessionRepository(db *database.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s, err := r.db.GetSession(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

func (r *SQLiteSessionRepository) SaveSession(ctx context.Context, s *model.Session) error {
	return r.db.SaveSession(ctx, s)
}

func (r *SQLiteSessionRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.DeleteSession(ctx, id)
}
