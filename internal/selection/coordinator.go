package selection

import (
	"time"

	"grabbi/internal/model"
	"grabbi/internal/storehours"
)

// IsSelectable reports whether f may be selected at now.
func IsSelectable(f *model.Franchise, now time.Time) bool {
	if f == nil || f.ID == "" {
		return false
	}
	return storehours.FranchiseStatus(f, now).IsOpen
}

// SelectFranchise picks candidate as the active franchise.
//
// A closed candidate is always rejected. A non-empty cart bound to another
// franchise moves the state to awaiting confirmation without touching the
// cart or the selection.
func SelectFranchise(st State, candidate *model.Franchise, now time.Time) Decision {
	if candidate == nil || candidate.ID == "" {
		return reject(st, ErrInvalidFranchise)
	}
	if !IsSelectable(candidate, now) {
		return reject(st, ErrStoreClosed)
	}

	next := st.Clone()
	cart := next.Cart

	conflict := !cart.IsEmpty() && cart.FranchiseID != "" && cart.FranchiseID != candidate.ID
	if conflict {
		next.Phase = PhaseAwaitingConfirmation
		next.Intent = IntentSwitchFranchise
		next.Pending = candidate.Clone()
		return requireConfirmation(next)
	}

	var effects []Effect
	if next.SelectedID() != candidate.ID {
		effects = append(effects, EffectFranchiseChanged)
	}
	if cart.FranchiseID != candidate.ID {
		effects = append(effects, EffectCartBound)
	}

	next = next.idle()
	next.Selected = candidate.Clone()
	next.Cart.FranchiseID = candidate.ID

	return apply(next, effects...)
}

// ConfirmSwitch executes the pending confirmation. The cart is emptied in both intents.
func ConfirmSwitch(st State, now time.Time) Decision {
	if !st.Awaiting() {
		return reject(st, ErrNoPendingSwitch)
	}

	switch st.Intent {
	case IntentChangeLocation:
		next := st.Clone().idle()
		next.Cart = model.CartState{}
		return apply(next, EffectCartCleared, EffectLocationChangeAllowed)

	default:
		if st.Pending == nil {
			return reject(st, ErrNoPendingSwitch)
		}
		// The candidate may have closed while the user was deciding.
		if !IsSelectable(st.Pending, now) {
			return reject(st, ErrStoreClosed)
		}

		next := st.Clone()
		pending := next.Pending
		next = next.idle()
		next.Selected = pending
		next.Cart = model.CartState{FranchiseID: pending.ID}
		return apply(next, EffectCartCleared, EffectFranchiseChanged)
	}
}

// CancelSwitch discards the pending confirmation. Selection and cart are untouched.
func CancelSwitch(st State) Decision {
	if !st.Awaiting() {
		return reject(st, ErrNoPendingSwitch)
	}
	return apply(st.Clone().idle())
}

// AttemptLocationChange gates a delivery location change on an empty cart.
func AttemptLocationChange(st State) Decision {
	next := st.Clone()
	if !next.Cart.IsEmpty() {
		next.Phase = PhaseAwaitingConfirmation
		next.Intent = IntentChangeLocation
		next.Pending = nil
		return requireConfirmation(next)
	}
	return apply(next.idle(), EffectLocationChangeAllowed)
}

// Deselect clears the selection. Allowed only while the cart is empty, so a
// store that closed after being selected can still be dropped.
func Deselect(st State) Decision {
	if !st.Cart.IsEmpty() {
		return reject(st, ErrCartNotEmpty)
	}

	next := st.Clone().idle()
	var effects []Effect
	if next.Selected != nil {
		effects = append(effects, EffectFranchiseChanged)
	}
	next.Selected = nil
	next.Cart = model.CartState{}
	return apply(next, effects...)
}

// Restore re-validates persisted state, for example after a restart.
//
// refreshed, when it has the selected id, replaces the persisted copy of the
// selected franchise; otherwise the persisted copy is kept without its stale
// upstream status. The returned bool reports whether the selection is open at now.
func Restore(st State, refreshed *model.Franchise, now time.Time) (Decision, bool) {
	next := st.Clone().idle()

	if next.Selected != nil {
		if refreshed != nil && refreshed.ID == next.Selected.ID {
			next.Selected = refreshed.Clone()
		} else {
			next.Selected.StoreStatus = nil
		}
	}

	items := next.Cart.Items[:0:0]
	for _, it := range next.Cart.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			continue
		}
		items = append(items, it)
	}
	next.Cart.Items = items

	var effects []Effect
	selectedID := next.SelectedID()

	switch {
	case next.Cart.IsEmpty():
		next.Cart.Items = nil
		if next.Cart.FranchiseID != selectedID && selectedID != "" {
			effects = append(effects, EffectCartBound)
		}
		next.Cart.FranchiseID = selectedID
	case selectedID == "":
		next.Cart = model.CartState{}
		effects = append(effects, EffectCartCleared)
	case next.Cart.FranchiseID == "":
		next.Cart.FranchiseID = selectedID
		effects = append(effects, EffectCartBound)
	case next.Cart.FranchiseID != selectedID:
		next.Cart = model.CartState{FranchiseID: selectedID}
		effects = append(effects, EffectCartCleared)
	}

	return apply(next, effects...), IsSelectable(next.Selected, now)
}
