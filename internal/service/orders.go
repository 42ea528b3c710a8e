package service

import (
	"context"
	"errors"
	"fmt"

	"grabbi/internal/database"
	"grabbi/internal/events"
	"grabbi/internal/metrics"
	"grabbi/internal/model"
)

// Order returns a placed order by id.
func (s *Storefront) Order(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// Orders lists a session's orders, newest first.
func (s *Storefront) Orders(ctx context.Context, id string, limit int) ([]*model.Order, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	orders, err := s.store.ListOrders(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []*model.Order{}
	}
	return orders, nil
}

// CancelOrder cancels one of the session's orders while the store has not
// dispatched it. Points earned on the order are kept.
func (s *Storefront) CancelOrder(ctx context.Context, id, orderID string) (*model.Order, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	o, err := s.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.SessionID != id {
		return nil, ErrOrderNotFound
	}
	if !o.Status.Cancellable() {
		return nil, ErrOrderNotCancellable
	}

	now := s.clock()
	if err := s.store.UpdateOrderStatus(ctx, o.ID, model.OrderCancelled, now); err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	o.Status = model.OrderCancelled
	o.UpdatedAt = now

	metrics.IncOrderCancelled()
	s.publish(events.Event{
		Type:        EventOrderCancelled,
		SessionID:   id,
		FranchiseID: o.FranchiseID,
		CreatedAt:   now,
	}.WithPayload(o))
	s.logger.Info().Str("session_id", id).Str("order_id", o.ID).Msg("Order cancelled")

	return o, nil
}
