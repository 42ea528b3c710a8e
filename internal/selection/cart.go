package selection

import (
	"time"

	"grabbi/internal/model"
)

func ready(st State) error {
	if st.Selected == nil {
		return ErrNoFranchiseSelected
	}
	if st.Awaiting() {
		return ErrSwitchPending
	}
	if !st.Cart.IsEmpty() && st.Cart.FranchiseID != st.Selected.ID {
		return ErrCartFranchiseMismatch
	}
	return nil
}

// AddItem adds item to the cart, merging quantities for an existing product.
// The first item binds the cart to the selected franchise.
func AddItem(st State, item model.CartItem) Decision {
	if err := ready(st); err != nil {
		return reject(st, err)
	}
	if item.ProductID == "" || item.UnitPrice < 0 {
		return reject(st, ErrInvalidItem)
	}
	if item.Quantity <= 0 {
		return reject(st, ErrInvalidQuantity)
	}

	next := st.Clone()
	var effects []Effect
	if next.Cart.FranchiseID != next.Selected.ID {
		next.Cart.FranchiseID = next.Selected.ID
		effects = append(effects, EffectCartBound)
	}

	if idx := next.Cart.Find(item.ProductID); idx >= 0 {
		line := &next.Cart.Items[idx]
		line.Quantity += item.Quantity
		if item.Name != "" {
			line.Name = item.Name
		}
		if item.UnitPrice > 0 {
			line.UnitPrice = item.UnitPrice
		}
	} else {
		next.Cart.Items = append(next.Cart.Items, item)
	}

	return apply(next, effects...)
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func UpdateQuantity(st State, productID string, quantity int) Decision {
	if err := ready(st); err != nil {
		return reject(st, err)
	}
	idx := st.Cart.Find(productID)
	if idx < 0 {
		return reject(st, ErrItemNotFound)
	}
	if quantity <= 0 {
		return RemoveItem(st, productID)
	}

	next := st.Clone()
	next.Cart.Items[idx].Quantity = quantity
	return apply(next)
}

// RemoveItem drops a line. An emptied cart keeps its binding.
func RemoveItem(st State, productID string) Decision {
	if err := ready(st); err != nil {
		return reject(st, err)
	}
	idx := st.Cart.Find(productID)
	if idx < 0 {
		return reject(st, ErrItemNotFound)
	}

	next := st.Clone()
	next.Cart.Items = append(next.Cart.Items[:idx], next.Cart.Items[idx+1:]...)
	if len(next.Cart.Items) == 0 {
		next.Cart.Items = nil
	}
	return apply(next)
}

// ClearCart empties the cart, keeping it bound to the selection.
func ClearCart(st State) Decision {
	if st.Awaiting() {
		return reject(st, ErrSwitchPending)
	}

	next := st.Clone()
	next.Cart = model.CartState{FranchiseID: next.SelectedID()}
	if st.Cart.IsEmpty() {
		return apply(next)
	}
	return apply(next, EffectCartCleared)
}

// CheckCheckout verifies that the state can be turned into an order at now.
func CheckCheckout(st State, now time.Time) error {
	if err := ready(st); err != nil {
		return err
	}
	if st.Cart.IsEmpty() {
		return ErrCartEmpty
	}
	if !IsSelectable(st.Selected, now) {
		return ErrStoreClosed
	}
	return nil
}
