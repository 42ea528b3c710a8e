// Package service hosts the storefront: it loads sessions, runs the
// selection coordinator against them, and persists and publishes the result.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"grabbi/internal/catalog"
	"grabbi/internal/events"
	"grabbi/internal/loyalty"
	"grabbi/internal/metrics"
	"grabbi/internal/model"
	"grabbi/internal/repository"
	"grabbi/internal/selection"
	"grabbi/internal/storehours"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrOutOfDeliveryArea   = errors.New("address is outside the delivery area")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

// EventPublisher receives coordinator effects and order events.
type EventPublisher interface {
	Publish(event events.Event) error
}

// LoyaltyStore persists loyalty history.
type LoyaltyStore interface {
	AddLoyaltyEntry(ctx context.Context, e loyalty.Entry) (int64, error)
	ListLoyaltyHistory(ctx context.Context, sessionID string, limit int) ([]loyalty.Entry, error)
}

// OrderStore persists placed orders. Lookups of unknown ids return database.ErrNotFound.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, sessionID string, limit int) ([]*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error
}

// Store is the durable storage behind loyalty history and orders.
type Store interface {
	LoyaltyStore
	OrderStore
}

// Result is the outcome of a session operation.
type Result struct {
	Session *model.Session     `json:"session"`
	Outcome selection.Outcome  `json:"outcome"`
	Effects []selection.Effect `json:"effects,omitempty"`
	Status  *storehours.Info   `json:"store_status,omitempty"`
}

// Option configures a Storefront.
type Option func(*Storefront)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Storefront) { s.now = now }
}

// WithLocation sets the zone store hours are written in.
func WithLocation(loc *time.Location) Option {
	return func(s *Storefront) {
		if loc != nil {
			s.loc = loc
		}
	}
}

type Storefront struct {
	source   catalog.Source
	sessions repository.SessionRepository
	store    Store
	bus      EventPublisher
	logger   *zerolog.Logger

	now   func() time.Time
	loc   *time.Location
	locks *sessionLocks
}

func NewStorefront(
	source catalog.Source,
	sessions repository.SessionRepository,
	store Store,
	bus EventPublisher,
	logger *zerolog.Logger,
	opts ...Option,
) *Storefront {
	l := logger.With().Str("component", "storefront").Logger()
	s := &Storefront{
		source:   source,
		sessions: sessions,
		store:    store,
		bus:      bus,
		logger:   &l,
		now:      time.Now,
		loc:      time.Local,
		locks:    newSessionLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock returns the current wall time in the store hours zone.
func (s *Storefront) clock() time.Time {
	return s.now().In(s.loc)
}

// CreateSession starts an empty session.
func (s *Storefront) CreateSession(ctx context.Context) (*model.Session, error) {
	now := s.clock()
	sess := &model.Session{
		ID:        uuid.NewString(),
		Phase:     string(selection.PhaseIdle),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Debug().Str("session_id", sess.ID).Msg("Session created")
	return sess, nil
}

// Session returns the stored session with the selected store's status.
func (s *Storefront) Session(ctx context.Context, id string) (*Result, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Result{
		Session: sess,
		Outcome: selection.OutcomeApply,
		Status:  s.statusOf(sess.SelectedFranchise),
	}, nil
}

func (s *Storefront) load(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.sessions.GetSession(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

func (s *Storefront) statusOf(f *model.Franchise) *storehours.Info {
	if f == nil {
		return nil
	}
	info := storehours.FranchiseStatus(f, s.clock())
	return &info
}

// decideFunc computes a decision for the loaded state. It may do I/O.
type decideFunc func(ctx context.Context, st selection.State, now time.Time) (selection.Decision, error)

// mutate runs one coordinator operation under the session lock and
// persists the new state unless it was rejected.
func (s *Storefront) mutate(ctx context.Context, id, op string, decide decideFunc) (*Result, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	d, err := decide(ctx, selection.FromSession(sess), now)
	if err != nil {
		return nil, err
	}

	metrics.IncSelectionDecision(op, string(d.Outcome))
	if d.Rejected() {
		metrics.IncSelectionRejected(d.Err.Error())
		s.logger.Debug().Str("session_id", id).Str("op", op).Err(d.Err).Msg("Operation rejected")
		return nil, d.Err
	}

	d.State.ApplyTo(sess)
	sess.UpdatedAt = now
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.publishEffects(sess, d.Effects, now)

	return &Result{
		Session: sess,
		Outcome: d.Outcome,
		Effects: d.Effects,
		Status:  s.statusOf(sess.SelectedFranchise),
	}, nil
}

func (s *Storefront) publishEffects(sess *model.Session, effects []selection.Effect, now time.Time) {
	franchiseID := ""
	if sess.SelectedFranchise != nil {
		franchiseID = sess.SelectedFranchise.ID
	}
	for _, e := range effects {
		metrics.IncEffect(string(e))
		s.publish(events.Event{
			Type:        string(e),
			SessionID:   sess.ID,
			FranchiseID: franchiseID,
			CreatedAt:   now,
		})
	}
}

func (s *Storefront) publish(ev events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ev); err != nil {
		s.logger.Warn().Err(err).Str("event", ev.Type).Str("session_id", ev.SessionID).Msg("Event handler failed")
	}
}

// refresh returns the backend's current copy of f. When the backend cannot
// be reached the stored copy is used without its upstream status, so only
// the weekly hours decide. Unlisted franchises return catalog.ErrFranchiseNotFound.
func (s *Storefront) refresh(ctx context.Context, f *model.Franchise) (*model.Franchise, error) {
	fresh, err := s.source.GetFranchise(ctx, f.ID)
	switch {
	case err == nil:
		return fresh, nil
	case errors.Is(err, catalog.ErrFranchiseNotFound):
		return nil, err
	default:
		s.logger.Warn().Err(err).Str("franchise_id", f.ID).Msg("Franchise refresh failed, using stored hours")
		stored := f.Clone()
		stored.StoreStatus = nil
		return stored, nil
	}
}

// fetchFranchise resolves a franchise and rejects unknown ids.
func (s *Storefront) fetchFranchise(ctx context.Context, id string) (*model.Franchise, error) {
	if id == "" {
		return nil, catalog.ErrFranchiseNotFound
	}
	f, err := s.source.GetFranchise(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrFranchiseNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch franchise %s: %w", id, err)
	}
	return f, nil
}
