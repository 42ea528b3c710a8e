package catalog

import (
	"context"
	"sync"

	"grabbi/internal/config"
	"grabbi/internal/delivery"
	"grabbi/internal/model"
)

// Static serves franchises from a FranchisesConfig. Update swaps the
// catalog in place so it can follow config hot reloads.
type Static struct {
	mu         sync.RWMutex
	franchises []*model.Franchise
}

func NewStatic(cfg *config.FranchisesConfig) *Static {
	s := &Static{}
	s.Update(cfg)
	return s
}

// Update replaces the catalog contents.
func (s *Static) Update(cfg *config.FranchisesConfig) {
	var list []*model.Franchise
	if cfg != nil {
		list = make([]*model.Franchise, 0, len(cfg.Franchises))
		for i := range cfg.Franchises {
			list = append(list, cfg.Franchises[i].Clone())
		}
	}

	s.mu.Lock()
	s.franchises = list
	s.mu.Unlock()
}

// All returns copies of every configured franchise, inactive ones included.
func (s *Static) All() []*model.Franchise {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Franchise, 0, len(s.franchises))
	for _, f := range s.franchises {
		out = append(out, f.Clone())
	}
	return out
}

func (s *Static) GetFranchise(_ context.Context, id string) (*model.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.franchises {
		if f.ID == id {
			return f.Clone(), nil
		}
	}
	return nil, ErrFranchiseNotFound
}

func (s *Static) Nearest(_ context.Context, lat, lng float64) (delivery.Candidate, error) {
	best, ok := delivery.Nearest(s.All(), lat, lng)
	if !ok {
		return delivery.Candidate{}, ErrNoFranchiseNearby
	}
	return best, nil
}

func (s *Static) Nearby(_ context.Context, lat, lng float64) ([]delivery.Candidate, error) {
	return delivery.Rank(s.All(), lat, lng), nil
}
