package model

import "time"

// OrderStatus tracks an order from placement to delivery.
type OrderStatus string

const (
	OrderPlaced     OrderStatus = "placed"
	OrderPreparing  OrderStatus = "preparing"
	OrderDispatched OrderStatus = "dispatched"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Cancellable reports whether the store has not yet dispatched the order.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPlaced || s == OrderPreparing
}

// Order is a checked-out cart. Payment is handled elsewhere.
type Order struct {
	ID           string      `json:"id"`
	SessionID    string      `json:"session_id"`
	FranchiseID  string      `json:"franchise_id"`
	Status       OrderStatus `json:"status"`
	Items        []CartItem  `json:"items"`
	Subtotal     float64     `json:"subtotal"`
	DeliveryFee  float64     `json:"delivery_fee"`
	Total        float64     `json:"total"`
	PointsEarned int         `json:"points_earned"`
	CustomerLat  *float64    `json:"customer_lat,omitempty"`
	CustomerLng  *float64    `json:"customer_lng,omitempty"`
	PlacedAt     time.Time   `json:"placed_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
