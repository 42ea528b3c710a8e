// Package selection coordinates franchise selection with the cart's franchise binding.
//
// Every operation is a pure function from a State to a Decision. The
// functions here are the only writers of CartState.FranchiseID.
package selection

import (
	"errors"

	"grabbi/internal/model"
)

// Phase of the selection dialog.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
)

// Intent is what an awaiting confirmation will do once confirmed.
type Intent string

const (
	IntentNone            Intent = ""
	IntentSwitchFranchise Intent = "switch_franchise"
	IntentChangeLocation  Intent = "change_location"
)

// Outcome of an operation.
type Outcome string

const (
	OutcomeApply               Outcome = "apply"
	OutcomeRequireConfirmation Outcome = "require_confirmation"
	OutcomeRejected            Outcome = "rejected"
)

// Effect is a side effect the host reacts to (re-fetching listings, clearing a remote cart).
type Effect string

const (
	EffectFranchiseChanged      Effect = "franchise_changed"
	EffectCartCleared           Effect = "cart_cleared"
	EffectCartBound             Effect = "cart_bound"
	EffectLocationChangeAllowed Effect = "location_change_allowed"
)

var (
	ErrStoreClosed           = errors.New("store closed")
	ErrNoPendingSwitch       = errors.New("no pending switch")
	ErrNoFranchiseSelected   = errors.New("no franchise selected")
	ErrInvalidFranchise      = errors.New("invalid franchise")
	ErrSwitchPending         = errors.New("franchise switch pending confirmation")
	ErrCartNotEmpty          = errors.New("cart not empty")
	ErrCartEmpty             = errors.New("cart is empty")
	ErrCartFranchiseMismatch = errors.New("cart belongs to another franchise")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInvalidItem           = errors.New("invalid cart item")
	ErrItemNotFound          = errors.New("item not in cart")
)

// State is the full input of every operation.
type State struct {
	Phase    Phase            `json:"phase"`
	Intent   Intent           `json:"intent,omitempty"`
	Selected *model.Franchise `json:"selected_franchise,omitempty"`
	Pending  *model.Franchise `json:"pending_franchise,omitempty"`
	Cart     model.CartState  `json:"cart"`
}

// Decision is the result of an operation. On rejection State equals the input.
type Decision struct {
	Outcome Outcome
	State   State
	Effects []Effect
	Err     error
}

// Rejected reports whether the operation was refused.
func (d Decision) Rejected() bool {
	return d.Outcome == OutcomeRejected
}

// HasEffect reports whether e was emitted.
func (d Decision) HasEffect(e Effect) bool {
	for _, got := range d.Effects {
		if got == e {
			return true
		}
	}
	return false
}

func normalize(p Phase) Phase {
	if p == "" {
		return PhaseIdle
	}
	return p
}

// Awaiting reports whether a confirmation is pending.
func (s State) Awaiting() bool {
	return s.Phase == PhaseAwaitingConfirmation
}

// SelectedID returns the selected franchise id or "".
func (s State) SelectedID() string {
	if s.Selected == nil {
		return ""
	}
	return s.Selected.ID
}

// Clone deep copies the state so decisions never alias their input.
func (s State) Clone() State {
	return State{
		Phase:    normalize(s.Phase),
		Intent:   s.Intent,
		Selected: s.Selected.Clone(),
		Pending:  s.Pending.Clone(),
		Cart:     s.Cart.Clone(),
	}
}

func (s State) idle() State {
	s.Phase = PhaseIdle
	s.Intent = IntentNone
	s.Pending = nil
	return s
}

// FromSession extracts the coordinator state from a persisted session.
func FromSession(sess *model.Session) State {
	if sess == nil {
		return State{Phase: PhaseIdle}
	}
	return State{
		Phase:    normalize(Phase(sess.Phase)),
		Intent:   Intent(sess.Intent),
		Selected: sess.SelectedFranchise,
		Pending:  sess.PendingFranchise,
		Cart:     sess.Cart,
	}.Clone()
}

// ApplyTo writes the state back into a session.
func (s State) ApplyTo(sess *model.Session) {
	c := s.Clone()
	sess.Phase = string(c.Phase)
	sess.Intent = string(c.Intent)
	sess.SelectedFranchise = c.Selected
	sess.PendingFranchise = c.Pending
	sess.Cart = c.Cart
}

func apply(next State, effects ...Effect) Decision {
	return Decision{Outcome: OutcomeApply, State: next, Effects: effects}
}

func requireConfirmation(next State) Decision {
	return Decision{Outcome: OutcomeRequireConfirmation, State: next}
}

func reject(st State, err error) Decision {
	return Decision{Outcome: OutcomeRejected, State: st.Clone(), Err: err}
}
