package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"grabbi/internal/catalog"
	"grabbi/internal/delivery"
	"grabbi/internal/events"
	"grabbi/internal/loyalty"
	"grabbi/internal/metrics"
	"grabbi/internal/model"
	"grabbi/internal/selection"
)

const (
	EventOrderPlaced    = "order_placed"
	EventOrderCancelled = "order_cancelled"
	EventPointsRedeemed = "points_redeemed"

	orderPointsDescription = "Order points"
)

// CheckoutRequest carries the delivery point. Without coordinates the
// radius check is skipped.
type CheckoutRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// LoyaltySummary is a session's balance and recent history.
type LoyaltySummary struct {
	Points  int             `json:"points"`
	History []loyalty.Entry `json:"history"`
}

// newOrderID keeps the ORD<unix ms> shape and adds a random suffix so
// concurrent checkouts never collide.
func newOrderID(now time.Time) string {
	return fmt.Sprintf("ORD%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// Checkout turns the cart into an order. The selected store must be open
// now, the cart bound to it, and the delivery point inside its radius.
// On success the cart is emptied and loyalty points are credited.
func (s *Storefront) Checkout(ctx context.Context, id string, req CheckoutRequest) (*model.Order, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	st := selection.FromSession(sess)
	if st.Selected != nil {
		f, err := s.refresh(ctx, st.Selected)
		if errors.Is(err, catalog.ErrFranchiseNotFound) {
			return nil, s.rejectCheckout(id, selection.ErrInvalidFranchise)
		}
		st.Selected = f
	}

	if err := selection.CheckCheckout(st, now); err != nil {
		return nil, s.rejectCheckout(id, err)
	}
	if req.Latitude != nil && req.Longitude != nil && !delivery.InRadius(st.Selected, *req.Latitude, *req.Longitude) {
		return nil, s.rejectCheckout(id, ErrOutOfDeliveryArea)
	}

	quote := delivery.QuoteFor(st.Selected, st.Cart.Subtotal())
	order := &model.Order{
		ID:          newOrderID(now),
		SessionID:   id,
		FranchiseID: st.Selected.ID,
		Status:      model.OrderPlaced,
		Items:       st.Cart.Clone().Items,
		Subtotal:    quote.Subtotal,
		DeliveryFee: quote.Fee,
		Total:       quote.Total,
		CustomerLat: req.Latitude,
		CustomerLng: req.Longitude,
		PlacedAt:    now,
		UpdatedAt:   now,
	}

	ledger := loyalty.FromBalance(sess.LoyaltyPoints, nil)
	var earned *loyalty.Entry
	if points := loyalty.PointsForSubtotal(quote.Subtotal); points > 0 {
		entry, err := ledger.Earn(points, orderPointsDescription, now)
		if err != nil {
			return nil, err
		}
		entry.SessionID = id
		earned = &entry
		order.PointsEarned = points
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	d := selection.ClearCart(st)
	d.State.ApplyTo(sess)
	sess.LoyaltyPoints = ledger.Balance()
	sess.UpdatedAt = now
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		s.voidOrder(ctx, order, now)
		return nil, fmt.Errorf("save session: %w", err)
	}
	if earned != nil {
		s.recordLoyalty(ctx, *earned)
	}

	metrics.IncSelectionDecision("checkout", string(selection.OutcomeApply))
	metrics.IncOrderPlaced()
	s.publishEffects(sess, d.Effects, now)
	s.publish(events.Event{
		Type:        EventOrderPlaced,
		SessionID:   id,
		FranchiseID: order.FranchiseID,
		CreatedAt:   now,
	}.WithPayload(order))

	s.logger.Info().
		Str("session_id", id).
		Str("order_id", order.ID).
		Str("franchise_id", order.FranchiseID).
		Float64("total", order.Total).
		Msg("Order placed")

	return order, nil
}

func (s *Storefront) rejectCheckout(id string, err error) error {
	metrics.IncSelectionDecision("checkout", string(selection.OutcomeRejected))
	metrics.IncSelectionRejected(err.Error())
	s.logger.Debug().Str("session_id", id).Err(err).Msg("Checkout rejected")
	return err
}

// voidOrder cancels an order whose session could not be saved, so the
// cart that is still in the session is not also listed as placed.
func (s *Storefront) voidOrder(ctx context.Context, o *model.Order, now time.Time) {
	if err := s.store.UpdateOrderStatus(ctx, o.ID, model.OrderCancelled, now); err != nil {
		metrics.IncStoreWriteFailure("order_status")
		s.logger.Error().Err(err).Str("order_id", o.ID).Msg("Failed to void order after session save error")
	}
}

// recordLoyalty appends a history row once the balance change is saved.
// The session balance is authoritative, so a failed append is logged, not returned.
func (s *Storefront) recordLoyalty(ctx context.Context, e loyalty.Entry) {
	if _, err := s.store.AddLoyaltyEntry(ctx, e); err != nil {
		metrics.IncStoreWriteFailure("loyalty_history")
		s.logger.Error().
			Err(err).
			Str("session_id", e.SessionID).
			Str("type", string(e.Type)).
			Int("amount", e.Amount).
			Msg("Failed to record loyalty history")
	}
}

// Loyalty returns the session's points and up to limit history entries.
func (s *Storefront) Loyalty(ctx context.Context, id string, limit int) (*LoyaltySummary, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListLoyaltyHistory(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list loyalty history: %w", err)
	}
	if history == nil {
		history = []loyalty.Entry{}
	}
	return &LoyaltySummary{Points: sess.LoyaltyPoints, History: history}, nil
}

// RedeemPoints spends points from the session's balance.
func (s *Storefront) RedeemPoints(ctx context.Context, id string, amount int, description string) (*LoyaltySummary, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	ledger := loyalty.FromBalance(sess.LoyaltyPoints, nil)
	entry, err := ledger.Redeem(amount, description, now)
	if err != nil {
		return nil, err
	}
	entry.SessionID = id

	sess.LoyaltyPoints = ledger.Balance()
	sess.UpdatedAt = now
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.recordLoyalty(ctx, entry)

	s.publish(events.Event{Type: EventPointsRedeemed, SessionID: id, CreatedAt: now}.WithPayload(entry))
	return &LoyaltySummary{Points: sess.LoyaltyPoints, History: ledger.History()}, nil
}
