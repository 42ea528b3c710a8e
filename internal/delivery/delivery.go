// Package delivery computes distances to franchises and delivery fees.
package delivery

import (
	"math"
	"sort"

	"grabbi/internal/model"
)

const (
	// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
	EarthRadiusMiles = 3959

	DefaultFee             = 4.99
	DefaultFreeDeliveryMin = 50.0
	DefaultRadiusMiles     = 5.0
)

// Candidate is a franchise with its distance from a delivery point.
type Candidate struct {
	Franchise *model.Franchise `json:"franchise"`
	Distance  float64          `json:"distance"` // miles
}

// Quote is the fee breakdown for a cart subtotal.
type Quote struct {
	Subtotal     float64 `json:"subtotal"`
	Fee          float64 `json:"delivery_fee"`
	Total        float64 `json:"total"`
	FreeDelivery bool    `json:"free_delivery"`
	AmountToFree float64 `json:"amount_to_free"`
	FreeMin      float64 `json:"free_delivery_min"`
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceMiles returns the great-circle distance between two points.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

func radius(f *model.Franchise) float64 {
	if f.DeliveryRadius > 0 {
		return f.DeliveryRadius
	}
	return DefaultRadiusMiles
}

// InRadius reports whether (lat, lng) is within the franchise's delivery radius.
func InRadius(f *model.Franchise, lat, lng float64) bool {
	if f == nil {
		return false
	}
	return DistanceMiles(f.Latitude, f.Longitude, lat, lng) <= radius(f)
}

// Rank returns the active franchises that deliver to (lat, lng), nearest first.
func Rank(franchises []*model.Franchise, lat, lng float64) []Candidate {
	var out []Candidate
	for _, f := range franchises {
		if f == nil || !f.IsActive {
			continue
		}
		d := DistanceMiles(f.Latitude, f.Longitude, lat, lng)
		if d > radius(f) {
			continue
		}
		out = append(out, Candidate{Franchise: f, Distance: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// Nearest returns the closest franchise that delivers to (lat, lng).
func Nearest(franchises []*model.Franchise, lat, lng float64) (Candidate, bool) {
	ranked := Rank(franchises, lat, lng)
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	return ranked[0], true
}

// QuoteFor computes the delivery fee. The fee is waived once the subtotal
// reaches the franchise's free delivery minimum. A nil franchise uses the defaults.
func QuoteFor(f *model.Franchise, subtotal float64) Quote {
	fee, freeMin := DefaultFee, DefaultFreeDeliveryMin
	if f != nil {
		fee, freeMin = f.DeliveryFee, f.FreeDeliveryMin
	}
	if subtotal < 0 {
		subtotal = 0
	}

	q := Quote{Subtotal: round2(subtotal), FreeMin: freeMin}
	if subtotal < freeMin {
		q.Fee = round2(fee)
		q.AmountToFree = round2(freeMin - subtotal)
	}
	q.FreeDelivery = q.Fee == 0
	q.Total = round2(subtotal + q.Fee)
	return q
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
