package model

// StoreHourEntry is one weekly recurring open window of a franchise.
type StoreHourEntry struct {
	DayOfWeek int    `json:"day_of_week" yaml:"day_of_week"` // 0-6 (Sunday-Saturday)
	OpenTime  string `json:"open_time" yaml:"open_time"`     // "09:00"
	CloseTime string `json:"close_time" yaml:"close_time"`   // "21:00", may be before open_time
	IsClosed  bool   `json:"is_closed" yaml:"is_closed"`
}

// StoreStatus is the open/closed status computed by the backend.
type StoreStatus struct {
	IsOpen     bool   `json:"is_open"`
	Message    string `json:"message,omitempty"`
	CloseTime  string `json:"close_time,omitempty"`
	CurrentDay int    `json:"current_day"`
}

type Franchise struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name" yaml:"name"`
	Slug            string           `json:"slug,omitempty" yaml:"slug"`
	Address         string           `json:"address" yaml:"address"`
	City            string           `json:"city,omitempty" yaml:"city"`
	PostCode        string           `json:"post_code,omitempty" yaml:"post_code"`
	Latitude        float64          `json:"latitude" yaml:"latitude"`
	Longitude       float64          `json:"longitude" yaml:"longitude"`
	DeliveryRadius  float64          `json:"delivery_radius" yaml:"delivery_radius"`     // miles
	DeliveryFee     float64          `json:"delivery_fee" yaml:"delivery_fee"`           // currency
	FreeDeliveryMin float64          `json:"free_delivery_min" yaml:"free_delivery_min"` // currency
	IsActive        bool             `json:"is_active" yaml:"is_active"`
	StoreHours      []StoreHourEntry `json:"store_hours" yaml:"store_hours"`
	StoreStatus     *StoreStatus     `json:"store_status,omitempty" yaml:"-"`
}

// Clone returns a deep copy so callers can keep a franchise without sharing slices.
func (f *Franchise) Clone() *Franchise {
	if f == nil {
		return nil
	}
	c := *f
	if f.StoreHours != nil {
		c.StoreHours = append([]StoreHourEntry(nil), f.StoreHours...)
	}
	if f.StoreStatus != nil {
		st := *f.StoreStatus
		c.StoreStatus = &st
	}
	return &c
}
