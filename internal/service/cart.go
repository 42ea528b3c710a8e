package service

import (
	"context"
	"time"

	"grabbi/internal/model"
	"grabbi/internal/selection"
)

func (s *Storefront) AddItem(ctx context.Context, id string, item model.CartItem) (*Result, error) {
	return s.mutate(ctx, id, "add_item", func(_ context.Context, st selection.State, _ time.Time) (selection.Decision, error) {
		return selection.AddItem(st, item), nil
	})
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (s *Storefront) UpdateQuantity(ctx context.Context, id, productID string, quantity int) (*Result, error) {
	return s.mutate(ctx, id, "update_quantity", func(_ context.Context, st selection.State, _ time.Time) (selection.Decision, error) {
		return selection.UpdateQuantity(st, productID, quantity), nil
	})
}

func (s *Storefront) RemoveItem(ctx context.Context, id, productID string) (*Result, error) {
	return s.mutate(ctx, id, "remove_item", func(_ context.Context, st selection.State, _ time.Time) (selection.Decision, error) {
		return selection.RemoveItem(st, productID), nil
	})
}

func (s *Storefront) ClearCart(ctx context.Context, id string) (*Result, error) {
	return s.mutate(ctx, id, "clear_cart", func(_ context.Context, st selection.State, _ time.Time) (selection.Decision, error) {
		return selection.ClearCart(st), nil
	})
}
