package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grabbi/internal/model"
)

var monday = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func openFranchise(id string) *model.Franchise {
	f := &model.Franchise{ID: id, Name: "Store " + id}
	for d := 0; d < 7; d++ {
		f.StoreHours = append(f.StoreHours, model.StoreHourEntry{DayOfWeek: d, OpenTime: "08:00", CloseTime: "22:00"})
	}
	return f
}

func closedFranchise(id string) *model.Franchise {
	f := &model.Franchise{ID: id, Name: "Store " + id}
	for d := 0; d < 7; d++ {
		f.StoreHours = append(f.StoreHours, model.StoreHourEntry{DayOfWeek: d, IsClosed: true})
	}
	return f
}

func withCart(selected *model.Franchise, items ...model.CartItem) State {
	st := State{Phase: PhaseIdle, Selected: selected}
	if selected != nil {
		st.Cart.FranchiseID = selected.ID
	}
	st.Cart.Items = items
	return st
}

func twoItems() []model.CartItem {
	return []model.CartItem{
		{ProductID: "milk", UnitPrice: 1.5, Quantity: 1},
		{ProductID: "bread", UnitPrice: 2, Quantity: 1},
	}
}

func assertInvariant(t *testing.T, st State) {
	t.Helper()
	if st.Selected == nil {
		assert.Empty(t, st.Cart.FranchiseID, "binding without selection")
	}
	if !st.Cart.IsEmpty() {
		assert.Equal(t, st.SelectedID(), st.Cart.FranchiseID, "items under another franchise")
	}
}

func TestSelectFranchise_ClosedAlwaysRejected(t *testing.T) {
	a := openFranchise("A")
	closedB := closedFranchise("B")

	states := map[string]State{
		"empty":            {Phase: PhaseIdle},
		"with cart":        withCart(a, twoItems()...),
		"awaiting":         {Phase: PhaseAwaitingConfirmation, Intent: IntentSwitchFranchise, Selected: a, Pending: openFranchise("C"), Cart: withCart(a, twoItems()...).Cart},
		"already selected": withCart(closedB),
	}

	for name, st := range states {
		t.Run(name, func(t *testing.T) {
			d := SelectFranchise(st, closedB, monday)
			assert.True(t, d.Rejected())
			assert.ErrorIs(t, d.Err, ErrStoreClosed)
			assert.Equal(t, st.Clone(), d.State)
			assert.Empty(t, d.Effects)
		})
	}
}

func TestSelectFranchise_UpstreamClosedWins(t *testing.T) {
	f := openFranchise("A")
	f.StoreStatus = &model.StoreStatus{IsOpen: false}

	d := SelectFranchise(State{}, f, monday)
	assert.ErrorIs(t, d.Err, ErrStoreClosed)
}

func TestSelectFranchise_InvalidCandidate(t *testing.T) {
	d := SelectFranchise(State{}, nil, monday)
	assert.ErrorIs(t, d.Err, ErrInvalidFranchise)

	d = SelectFranchise(State{}, &model.Franchise{}, monday)
	assert.ErrorIs(t, d.Err, ErrInvalidFranchise)
}

func TestSelectFranchise_EmptyCartApplies(t *testing.T) {
	a := openFranchise("A")

	d := SelectFranchise(State{Phase: PhaseIdle}, a, monday)
	require.Equal(t, OutcomeApply, d.Outcome)
	assert.Equal(t, "A", d.State.SelectedID())
	assert.Equal(t, "A", d.State.Cart.FranchiseID)
	assert.Equal(t, PhaseIdle, d.State.Phase)
	assert.Equal(t, []Effect{EffectFranchiseChanged, EffectCartBound}, d.Effects)
	assertInvariant(t, d.State)

	// Empty cart bound to A does not conflict with B.
	b := openFranchise("B")
	d = SelectFranchise(d.State, b, monday)
	require.Equal(t, OutcomeApply, d.Outcome)
	assert.Equal(t, "B", d.State.Cart.FranchiseID)
	assertInvariant(t, d.State)
}

func TestSelectFranchise_SameFranchiseIsNoop(t *testing.T) {
	a := openFranchise("A")
	st := withCart(a, twoItems()...)

	d := SelectFranchise(st, openFranchise("A"), monday)
	require.Equal(t, OutcomeApply, d.Outcome)
	assert.Empty(t, d.Effects)
	assert.Equal(t, st.Cart, d.State.Cart)
	assert.Equal(t, "A", d.State.SelectedID())
}

func TestSelectFranchise_ConflictRequiresConfirmation(t *testing.T) {
	a := openFranchise("A")
	b := openFranchise("B")
	st := withCart(a, twoItems()...)

	d := SelectFranchise(st, b, monday)
	require.Equal(t, OutcomeRequireConfirmation, d.Outcome)
	assert.Equal(t, PhaseAwaitingConfirmation, d.State.Phase)
	assert.Equal(t, IntentSwitchFranchise, d.State.Intent)
	require.NotNil(t, d.State.Pending)
	assert.Equal(t, "B", d.State.Pending.ID)
	assert.Equal(t, st.Cart, d.State.Cart)
	assert.Equal(t, "A", d.State.SelectedID())
	assert.Empty(t, d.Effects)
}

func TestSelectFranchise_ReplacesPendingCandidate(t *testing.T) {
	a := openFranchise("A")
	st := withCart(a, twoItems()...)

	d := SelectFranchise(st, openFranchise("B"), monday)
	d = SelectFranchise(d.State, openFranchise("C"), monday)
	require.Equal(t, OutcomeRequireConfirmation, d.Outcome)
	assert.Equal(t, "C", d.State.Pending.ID)

	// Picking the bound franchise again resolves the conflict.
	d = SelectFranchise(d.State, openFranchise("A"), monday)
	require.Equal(t, OutcomeApply, d.Outcome)
	assert.Equal(t, PhaseIdle, d.State.Phase)
	assert.Nil(t, d.State.Pending)
	assert.Len(t, d.State.Cart.Items, 2)
}

func TestConfirmSwitch(t *testing.T) {
	a := openFranchise("A")
	st := withCart(a, twoItems()...)
	pending := SelectFranchise(st, openFranchise("B"), monday).State

	d := ConfirmSwitch(pending, monday)
	require.Equal(t, OutcomeApply, d.Outcome)
	assert.True(t, d.State.Cart.IsEmpty())
	assert.Equal(t, "B", d.State.Cart.FranchiseID)
	assert.Equal(t, "B", d.State.SelectedID())
	assert.Nil(t, d.State.Pending)
	assert.Equal(t, PhaseIdle, d.State.Phase)
	assert.True(t, d.HasEffect(EffectCartCleared))
	assert.True(t, d.HasEffect(EffectFranchiseChanged))
	assertInvariant(t, d.State)

	// Input state is not mutated.
	assert.Len(t, pending.Cart.Items, 2)
}

func TestConfirmSwitch_PendingClosedMeanwhile(t *testing.T) {
	a := openFranchise("A")
	b := openFranchise("B")
	pending := SelectFranchise(withCart(a, twoItems()...), b, monday).State
	pending.Pending.StoreStatus = &model.StoreStatus{IsOpen: false}

	d := ConfirmSwitch(pending, monday)
	assert.ErrorIs(t, d.Err, ErrStoreClosed)
	assert.Equal(t, pending, d.State)
}

func TestConfirmSwitch_NothingPending(t *testing.T) {
	st := withCart(openFranchise("A"), twoItems()...)
	d := ConfirmSwitch(st, monday)
	assert.True(t, d.Rejected())
	assert.ErrorIs(t, d.Err, ErrNoPendingSwitch)
	assert.Equal(t, st, d.State)

	broken := st
	broken.Phase = PhaseAwaitingConfirmation
	broken.Intent = IntentSwitchFranchise
	assert.ErrorIs(t, ConfirmSwitch(broken, monday).Err, ErrNoPendingSwitch)
}

func TestCancelSwitch(t *testing.T) {
	a := openFranchise("A")
	st := withCart(a, twoItems()...)
	pending := SelectFranchise(st, openFranchise("B"), monday).State

	d := CancelSwitch(pending)
	require.Equal(t, OutcomeApply, d.Outcome)
	assert.Equal(t, st, d.State)
	assert.Empty(t, d.Effects)

	d = CancelSwitch(st)
	assert.ErrorIs(t, d.Err, ErrNoPendingSwitch)
}

func TestAttemptLocationChange(t *testing.T) {
	a := openFranchise("A")

	t.Run("empty cart proceeds", func(t *testing.T) {
		d := AttemptLocationChange(withCart(a))
		require.Equal(t, OutcomeApply, d.Outcome)
		assert.Equal(t, []Effect{EffectLocationChangeAllowed}, d.Effects)
		assert.Equal(t, "A", d.State.SelectedID())
	})

	t.Run("items require confirmation", func(t *testing.T) {
		st := withCart(a, twoItems()...)
		d := AttemptLocationChange(st)
		require.Equal(t, OutcomeRequireConfirmation, d.Outcome)
		assert.Equal(t, IntentChangeLocation, d.State.Intent)
		assert.Nil(t, d.State.Pending)
		assert.Equal(t, st.Cart, d.State.Cart)

		confirmed := ConfirmSwitch(d.State, monday)
		require.Equal(t, OutcomeApply, confirmed.Outcome)
		assert.True(t, confirmed.State.Cart.IsEmpty())
		assert.Equal(t, "A", confirmed.State.SelectedID())
		assert.True(t, confirmed.HasEffect(EffectCartCleared))
		assert.True(t, confirmed.HasEffect(EffectLocationChangeAllowed))
		assertInvariant(t, confirmed.State)

		cancelled := CancelSwitch(d.State)
		assert.Equal(t, st, cancelled.State)
	})
}

func TestDeselect(t *testing.T) {
	closedA := closedFranchise("A")
	st := withCart(closedA)

	d := Deselect(st)
	require.Equal(t, OutcomeApply, d.Outcome)
	assert.Nil(t, d.State.Selected)
	assert.Empty(t, d.State.Cart.FranchiseID)
	assert.Equal(t, []Effect{EffectFranchiseChanged}, d.Effects)

	d = Deselect(withCart(closedA, twoItems()...))
	assert.ErrorIs(t, d.Err, ErrCartNotEmpty)
}

func TestRestore(t *testing.T) {
	a := openFranchise("A")

	t.Run("forces idle and drops bad lines", func(t *testing.T) {
		st := withCart(a, model.CartItem{ProductID: "milk", Quantity: 2}, model.CartItem{ProductID: "x", Quantity: 0})
		st.Phase = PhaseAwaitingConfirmation
		st.Intent = IntentSwitchFranchise
		st.Pending = openFranchise("B")

		d, open := Restore(st, nil, monday)
		assert.True(t, open)
		assert.Equal(t, PhaseIdle, d.State.Phase)
		assert.Nil(t, d.State.Pending)
		assert.Len(t, d.State.Cart.Items, 1)
		assert.Empty(t, d.Effects)
	})

	t.Run("strips stale upstream status", func(t *testing.T) {
		stale := openFranchise("A")
		stale.StoreStatus = &model.StoreStatus{IsOpen: false}

		d, open := Restore(withCart(stale), nil, monday)
		assert.True(t, open)
		assert.Nil(t, d.State.Selected.StoreStatus)
	})

	t.Run("uses refreshed franchise", func(t *testing.T) {
		fresh := openFranchise("A")
		fresh.StoreStatus = &model.StoreStatus{IsOpen: false}

		d, open := Restore(withCart(a), fresh, monday)
		assert.False(t, open)
		require.NotNil(t, d.State.Selected.StoreStatus)
	})

	t.Run("binds unbound cart", func(t *testing.T) {
		st := State{Selected: a, Cart: model.CartState{Items: twoItems()}}
		d, _ := Restore(st, nil, monday)
		assert.Equal(t, "A", d.State.Cart.FranchiseID)
		assert.Equal(t, []Effect{EffectCartBound}, d.Effects)
	})

	t.Run("clears cart of another franchise", func(t *testing.T) {
		st := State{Selected: a, Cart: model.CartState{Items: twoItems(), FranchiseID: "B"}}
		d, _ := Restore(st, nil, monday)
		assert.True(t, d.State.Cart.IsEmpty())
		assert.Equal(t, "A", d.State.Cart.FranchiseID)
		assert.Equal(t, []Effect{EffectCartCleared}, d.Effects)
		assertInvariant(t, d.State)
	})

	t.Run("clears orphaned cart", func(t *testing.T) {
		st := State{Cart: model.CartState{Items: twoItems(), FranchiseID: "B"}}
		d, open := Restore(st, nil, monday)
		assert.False(t, open)
		assert.Equal(t, model.CartState{}, d.State.Cart)
		assertInvariant(t, d.State)
	})
}

func TestSessionRoundTrip(t *testing.T) {
	a := openFranchise("A")
	st := SelectFranchise(withCart(a, twoItems()...), openFranchise("B"), monday).State

	var sess model.Session
	st.ApplyTo(&sess)
	assert.Equal(t, "awaiting_confirmation", sess.Phase)
	assert.Equal(t, "B", sess.PendingFranchise.ID)

	assert.Equal(t, st, FromSession(&sess))
	assert.Equal(t, PhaseIdle, FromSession(nil).Phase)
}
