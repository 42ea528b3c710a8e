// Package catalog resolves franchises for the storefront, either from the
// remote backend or from the static franchises.yaml catalog.
package catalog

import (
	"context"
	"errors"

	"grabbi/internal/delivery"
	"grabbi/internal/model"
)

var (
	ErrFranchiseNotFound = errors.New("franchise not found")
	ErrNoFranchiseNearby = errors.New("no franchise delivers to this location")
)

// Source looks up franchises. Returned franchises are owned by the caller.
type Source interface {
	GetFranchise(ctx context.Context, id string) (*model.Franchise, error)
	Nearest(ctx context.Context, lat, lng float64) (delivery.Candidate, error)
	Nearby(ctx context.Context, lat, lng float64) ([]delivery.Candidate, error)
}
