package service

import (
	"context"

	"grabbi/internal/delivery"
	"grabbi/internal/model"
	"grabbi/internal/storehours"
)

// FranchiseStatus is a franchise with its availability at the time of the call.
type FranchiseStatus struct {
	Franchise *model.Franchise `json:"franchise"`
	Status    storehours.Info  `json:"status"`
}

// FranchiseHours is a franchise's weekly schedule.
type FranchiseHours struct {
	FranchiseID string                   `json:"franchise_id"`
	Days        []storehours.DaySchedule `json:"days"`
	Status      storehours.Info          `json:"status"`
}

func (s *Storefront) FranchiseStatus(ctx context.Context, franchiseID string) (*FranchiseStatus, error) {
	f, err := s.fetchFranchise(ctx, franchiseID)
	if err != nil {
		return nil, err
	}
	return &FranchiseStatus{Franchise: f, Status: storehours.FranchiseStatus(f, s.clock())}, nil
}

func (s *Storefront) Hours(ctx context.Context, franchiseID string) (*FranchiseHours, error) {
	f, err := s.fetchFranchise(ctx, franchiseID)
	if err != nil {
		return nil, err
	}
	return &FranchiseHours{
		FranchiseID: f.ID,
		Days:        storehours.WeeklySchedule(f.StoreHours),
		Status:      storehours.FranchiseStatus(f, s.clock()),
	}, nil
}

// Nearby lists franchises delivering to (lat, lng), nearest first.
func (s *Storefront) Nearby(ctx context.Context, lat, lng float64) ([]delivery.Candidate, error) {
	return s.source.Nearby(ctx, lat, lng)
}

// Quote prices delivery for subtotal. An empty franchiseID uses the default fees.
func (s *Storefront) Quote(ctx context.Context, franchiseID string, subtotal float64) (delivery.Quote, error) {
	if franchiseID == "" {
		return delivery.QuoteFor(nil, subtotal), nil
	}
	f, err := s.fetchFranchise(ctx, franchiseID)
	if err != nil {
		return delivery.Quote{}, err
	}
	return delivery.QuoteFor(f, subtotal), nil
}
