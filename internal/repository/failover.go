package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"grabbi/internal/metrics"
	"grabbi/internal/model"
)

const recheckInterval = time.Minute

// FailoverSessionRepository serves from primary and switches to fallback
// while primary is failing. Primary is retried once per recheckInterval.
type FailoverSessionRepository struct {
	primary  SessionRepository
	fallback SessionRepository
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverSessionRepository(primary, fallback SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether primary should be tried now.
func (r *FailoverSessionRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) >= recheckInterval {
		r.lastCheck = time.Now()
		return true
	}
	return false
}

func (r *FailoverSessionRepository) markDown(op string, err error) {
	if !r.isDown.Swap(true) {
		r.logger.Warn().Err(err).Str("op", op).Msg("Primary session store failed, switching to fallback")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
	metrics.IncRepositoryFailover()
}

func (r *FailoverSessionRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session store recovered")
	}
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	if r.usePrimary() {
		s, err := r.primary.GetSession(ctx, id)
		switch {
		case err == nil:
			r.markUp()
			return s, nil
		case errors.Is(err, ErrSessionNotFound):
			r.markUp()
			// Sessions written during an outage live only in the fallback.
			return r.fallback.GetSession(ctx, id)
		default:
			r.markDown("get", err)
		}
	}
	return r.fallback.GetSession(ctx, id)
}

func (r *FailoverSessionRepository) SaveSession(ctx context.Context, s *model.Session) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, s)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown("save", err)
	}
	return r.fallback.SaveSession(ctx, s)
}

func (r *FailoverSessionRepository) DeleteSession(ctx context.Context, id string) error {
	var primaryErr error
	if r.usePrimary() {
		if primaryErr = r.primary.DeleteSession(ctx, id); primaryErr != nil {
			r.markDown("delete", primaryErr)
		} else {
			r.markUp()
		}
	}
	if err := r.fallback.DeleteSession(ctx, id); err != nil {
		return errors.Join(primaryErr, err)
	}
	return nil
}
