package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grabbi/internal/model"
)

func TestDistanceMiles(t *testing.T) {
	assert.InDelta(t, 0, DistanceMiles(51.5, -0.12, 51.5, -0.12), 1e-9)

	// London to Paris is about 214 miles.
	d := DistanceMiles(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 214, d, 2)

	assert.InDelta(t, d, DistanceMiles(48.8566, 2.3522, 51.5074, -0.1278), 1e-9)
}

func TestRank(t *testing.T) {
	near := &model.Franchise{ID: "near", Latitude: 51.5074, Longitude: -0.1278, DeliveryRadius: 5, IsActive: true}
	far := &model.Franchise{ID: "far", Latitude: 51.55, Longitude: -0.1278, DeliveryRadius: 5, IsActive: true}
	outside := &model.Franchise{ID: "outside", Latitude: 52.5, Longitude: -0.1278, DeliveryRadius: 5, IsActive: true}
	inactive := &model.Franchise{ID: "inactive", Latitude: 51.5074, Longitude: -0.1278, DeliveryRadius: 5}

	ranked := Rank([]*model.Franchise{far, outside, nil, inactive, near}, 51.508, -0.128)
	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].Franchise.ID)
	assert.Equal(t, "far", ranked[1].Franchise.ID)
	assert.Less(t, ranked[0].Distance, ranked[1].Distance)

	best, ok := Nearest([]*model.Franchise{far, near}, 51.508, -0.128)
	require.True(t, ok)
	assert.Equal(t, "near", best.Franchise.ID)

	_, ok = Nearest([]*model.Franchise{outside}, 51.508, -0.128)
	assert.False(t, ok)
}

func TestInRadius_DefaultRadius(t *testing.T) {
	f := &model.Franchise{Latitude: 51.5, Longitude: -0.12}
	assert.True(t, InRadius(f, 51.52, -0.12))
	assert.False(t, InRadius(f, 51.7, -0.12))
	assert.False(t, InRadius(nil, 51.5, -0.12))
}

func TestQuoteFor(t *testing.T) {
	f := &model.Franchise{DeliveryFee: 3.99, FreeDeliveryMin: 40}

	tests := []struct {
		name      string
		franchise *model.Franchise
		subtotal  float64
		wantFee   float64
		wantTotal float64
		wantToGo  float64
	}{
		{"below minimum", f, 25, 3.99, 28.99, 15},
		{"at minimum", f, 40, 0, 40, 0},
		{"above minimum", f, 55.5, 0, 55.5, 0},
		{"defaults", nil, 9.47, 4.99, 14.46, 40.53},
		{"defaults free", nil, 50, 0, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuoteFor(tt.franchise, tt.subtotal)
			assert.InDelta(t, tt.wantFee, q.Fee, 1e-9)
			assert.InDelta(t, tt.wantTotal, q.Total, 1e-9)
			assert.InDelta(t, tt.wantToGo, q.AmountToFree, 1e-9)
			assert.Equal(t, tt.wantFee == 0, q.FreeDelivery)
		})
	}
}
