package service

import (
	"context"
	"errors"
	"time"

	"grabbi/internal/catalog"
	"grabbi/internal/selection"
)

// Restore re-fetches the selected franchise and re-validates the session,
// dropping a pending confirmation and any cart that no longer matches. A
// franchise the backend no longer lists is deselected with its cart.
func (s *Storefront) Restore(ctx context.Context, id string) (*Result, error) {
	return s.mutate(ctx, id, "restore", func(ctx context.Context, st selection.State, now time.Time) (selection.Decision, error) {
		unlisted := false
		if st.Selected != nil {
			f, err := s.refresh(ctx, st.Selected)
			if errors.Is(err, catalog.ErrFranchiseNotFound) {
				s.logger.Warn().Str("session_id", id).Str("franchise_id", st.Selected.ID).Msg("Selected franchise no longer listed")
				unlisted = true
			}
			st.Selected = f
		}

		d, open := selection.Restore(st, st.Selected, now)
		if unlisted {
			d.Effects = append([]selection.Effect{selection.EffectFranchiseChanged}, d.Effects...)
		}
		if d.State.Selected != nil && !open {
			s.logger.Info().Str("session_id", id).Str("franchise_id", d.State.Selected.ID).Msg("Restored selection is closed")
		}
		return d, nil
	})
}

// SelectFranchise selects franchiseID for the session.
func (s *Storefront) SelectFranchise(ctx context.Context, id, franchiseID string) (*Result, error) {
	return s.mutate(ctx, id, "select", func(ctx context.Context, st selection.State, now time.Time) (selection.Decision, error) {
		f, err := s.fetchFranchise(ctx, franchiseID)
		if err != nil {
			return selection.Decision{}, err
		}
		if !f.IsActive {
			return selection.Decision{}, selection.ErrInvalidFranchise
		}
		return selection.SelectFranchise(st, f, now), nil
	})
}

// SelectNearest selects the nearest open franchise delivering to (lat, lng).
// When every candidate is closed the nearest one is tried and rejected.
func (s *Storefront) SelectNearest(ctx context.Context, id string, lat, lng float64) (*Result, error) {
	return s.mutate(ctx, id, "select_nearest", func(ctx context.Context, st selection.State, now time.Time) (selection.Decision, error) {
		nearby, err := s.source.Nearby(ctx, lat, lng)
		if err != nil {
			return selection.Decision{}, err
		}
		if len(nearby) == 0 {
			return selection.Decision{}, catalog.ErrNoFranchiseNearby
		}

		pick := nearby[0].Franchise
		for _, c := range nearby {
			if selection.IsSelectable(c.Franchise, now) {
				pick = c.Franchise
				break
			}
		}
		return selection.SelectFranchise(st, pick, now), nil
	})
}

// ConfirmSwitch executes a pending confirmation. A pending franchise is
// re-fetched first so its open state reflects the backend now, not when the
// switch was requested.
func (s *Storefront) ConfirmSwitch(ctx context.Context, id string) (*Result, error) {
	return s.mutate(ctx, id, "confirm", func(ctx context.Context, st selection.State, now time.Time) (selection.Decision, error) {
		if st.Awaiting() && st.Intent != selection.IntentChangeLocation && st.Pending != nil {
			f, err := s.refresh(ctx, st.Pending)
			if errors.Is(err, catalog.ErrFranchiseNotFound) {
				return selection.Decision{}, selection.ErrInvalidFranchise
			}
			if !f.IsActive {
				return selection.Decision{}, selection.ErrInvalidFranchise
			}
			st.Pending = f
		}
		return selection.ConfirmSwitch(st, now), nil
	})
}

func (s *Storefront) CancelSwitch(ctx context.Context, id string) (*Result, error) {
	return s.mutate(ctx, id, "cancel", func(_ context.Context, st selection.State, _ time.Time) (selection.Decision, error) {
		return selection.CancelSwitch(st), nil
	})
}

func (s *Storefront) AttemptLocationChange(ctx context.Context, id string) (*Result, error) {
	return s.mutate(ctx, id, "location_change", func(_ context.Context, st selection.State, _ time.Time) (selection.Decision, error) {
		return selection.AttemptLocationChange(st), nil
	})
}

func (s *Storefront) Deselect(ctx context.Context, id string) (*Result, error) {
	return s.mutate(ctx, id, "deselect", func(_ context.Context, st selection.State, _ time.Time) (selection.Decision, error) {
		return selection.Deselect(st), nil
	})
}
