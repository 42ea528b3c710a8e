package model

import "time"

type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// CartState holds the cart lines and the franchise they were added under.
// FranchiseID is empty when the cart was never bound.
type CartState struct {
	Items       []CartItem `json:"items"`
	FranchiseID string     `json:"cart_franchise_id,omitempty"`
}

// ItemCount returns the total quantity across lines.
func (c CartState) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c CartState) Subtotal() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

func (c CartState) IsEmpty() bool {
	return len(c.Items) == 0
}

// Find returns the index of the line for productID or -1.
func (c CartState) Find(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone copies the item slice.
func (c CartState) Clone() CartState {
	out := CartState{FranchiseID: c.FranchiseID}
	if c.Items != nil {
		out.Items = append([]CartItem(nil), c.Items...)
	}
	return out
}

// Session is the persisted per-visitor state.
type Session struct {
	ID                string     `json:"id"`
	Phase             string     `json:"phase"`
	Intent            string     `json:"intent,omitempty"`
	SelectedFranchise *Franchise `json:"selected_franchise,omitempty"`
	PendingFranchise  *Franchise `json:"pending_franchise,omitempty"`
	Cart              CartState  `json:"cart"`
	LoyaltyPoints     int        `json:"loyalty_points"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
