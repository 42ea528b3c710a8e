// Package loyalty tracks points earned on orders and redeemed by customers.
package loyalty

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidAmount      = errors.New("points amount must be positive")
)

// EntryType is the kind of a history entry.
type EntryType string

const (
	EntryEarned   EntryType = "earned"
	EntryRedeemed EntryType = "redeemed"
)

// Entry is one loyalty history line.
type Entry struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id,omitempty"`
	Type        EntryType `json:"type"`
	Amount      int       `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"date"`
}

// PointsForSubtotal returns one point per whole currency unit spent.
func PointsForSubtotal(subtotal float64) int {
	if subtotal <= 0 || math.IsNaN(subtotal) {
		return 0
	}
	return int(math.Floor(subtotal))
}

// Ledger is an in-memory balance with newest-first history.
type Ledger struct {
	points  int
	history []Entry
}

// NewLedger rebuilds a ledger from stored entries (newest first).
func NewLedger(entries []Entry) *Ledger {
	l := &Ledger{history: append([]Entry(nil), entries...)}
	for _, e := range entries {
		switch e.Type {
		case EntryEarned:
			l.points += e.Amount
		case EntryRedeemed:
			l.points -= e.Amount
		}
	}
	return l
}

// FromBalance builds a ledger from a stored balance and the most recent
// history, for when the full history is not loaded.
func FromBalance(balance int, recent []Entry) *Ledger {
	return &Ledger{points: balance, history: append([]Entry(nil), recent...)}
}

// Balance returns the current points.
func (l *Ledger) Balance() int {
	return l.points
}

// History returns entries newest first.
func (l *Ledger) History() []Entry {
	return append([]Entry(nil), l.history...)
}

// Earn adds points and returns the new entry.
func (l *Ledger) Earn(amount int, description string, at time.Time) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}
	if description == "" {
		description = "Points earned"
	}
	return l.record(EntryEarned, amount, description, at), nil
}

// Redeem spends points. Spending more than the balance fails.
func (l *Ledger) Redeem(amount int, description string, at time.Time) (Entry, error) {
	if amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}
	if amount > l.points {
		return Entry{}, ErrInsufficientPoints
	}
	if description == "" {
		description = "Points redeemed"
	}
	return l.record(EntryRedeemed, amount, description, at), nil
}

func (l *Ledger) record(t EntryType, amount int, description string, at time.Time) Entry {
	e := Entry{Type: t, Amount: amount, Description: description, CreatedAt: at}
	if t == EntryEarned {
		l.points += amount
	} else {
		l.points -= amount
	}
	l.history = append([]Entry{e}, l.history...)
	return e
}
