package loyalty

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsForSubtotal(t *testing.T) {
	assert.Equal(t, 0, PointsForSubtotal(0))
	assert.Equal(t, 0, PointsForSubtotal(-3))
	assert.Equal(t, 0, PointsForSubtotal(0.99))
	assert.Equal(t, 9, PointsForSubtotal(9.47))
	assert.Equal(t, 50, PointsForSubtotal(50))
}

func TestLedger(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewLedger(nil)

	_, err := l.Earn(20, "", now)
	require.NoError(t, err)
	_, err = l.Earn(5, "Order ORD1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 25, l.Balance())

	_, err = l.Redeem(30, "", now)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	_, err = l.Redeem(0, "", now)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.Earn(-1, "", now)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	e, err := l.Redeem(10, "", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "Points redeemed", e.Description)
	assert.Equal(t, 15, l.Balance())

	history := l.History()
	require.Len(t, history, 3)
	assert.Equal(t, EntryRedeemed, history[0].Type)
	assert.Equal(t, "Order ORD1", history[1].Description)
	assert.Equal(t, "Points earned", history[2].Description)

	rebuilt := NewLedger(history)
	assert.Equal(t, 15, rebuilt.Balance())
}

func TestFromBalance(t *testing.T) {
	l := FromBalance(40, nil)
	_, err := l.Redeem(41, "", time.Now())
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = l.Redeem(40, "Free delivery", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, l.Balance())
	assert.Len(t, l.History(), 1)
}
