// Package repository persists storefront sessions.
package repository

import (
	"context"
	"errors"

	"grabbi/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository stores sessions by id.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SaveSession(ctx context.Context, s *model.Session) error
	DeleteSession(ctx context.Context, id string) error
}
