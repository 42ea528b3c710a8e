package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grabbi/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_REDIS_ADDR", "localhost:6390")

	path := writeFile(t, dir, "config.yaml", `
database:
  path: "`+filepath.Join(dir, "db", "store.db")+`"
redis:
  address: "${TEST_REDIS_ADDR}"
api:
  enabled: true
  base_url: "http://backend"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6390", cfg.Redis.Address)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "configs/franchises.yaml", cfg.Catalog.Path)
	assert.Equal(t, time.Minute, cfg.APICacheTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := writeFile(t, dir, "bad.yaml", "api:\n  enabled: true\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "api.base_url")

	path = writeFile(t, dir, "tz.yaml", "store:\n  hours_timezone: \"Mars/Olympus\"\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "hours_timezone")
}

func TestConfig_HoursLocation(t *testing.T) {
	var cfg Config
	loc, err := cfg.HoursLocation()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Store.HoursTimezone = "UTC"
	loc, err = cfg.HoursLocation()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

const franchisesYAML = `
defaults:
  delivery_radius: 5
  delivery_fee: 4.99
  free_delivery_min: 50
  store_hours:
    - { day_of_week: 1, open_time: "09:00", close_time: "21:00" }
franchises:
  - id: "a"
    name: "Camden"
    latitude: 51.539
    longitude: -0.1426
    is_active: true
  - id: "b"
    name: "Shoreditch"
    latitude: 51.52
    longitude: -0.08
    delivery_fee: 3.99
    is_active: false
    store_hours:
      - { day_of_week: 5, open_time: "22:00", close_time: "02:00" }
`

func TestParseFranchisesConfig(t *testing.T) {
	cfg, err := ParseFranchisesConfig([]byte(franchisesYAML))
	require.NoError(t, err)

	a := cfg.GetFranchiseByID("a")
	require.NotNil(t, a)
	assert.Equal(t, 5.0, a.DeliveryRadius)
	assert.Equal(t, 4.99, a.DeliveryFee)
	assert.Len(t, a.StoreHours, 1)

	b := cfg.GetFranchiseByID("b")
	require.NotNil(t, b)
	assert.Equal(t, 3.99, b.DeliveryFee)
	assert.Equal(t, "22:00", b.StoreHours[0].OpenTime)

	assert.Nil(t, cfg.GetFranchiseByID("zzz"))
	assert.Len(t, cfg.GetActiveFranchises(), 1)
	assert.Equal(t, "FranchisesConfig: 2 franchises (1 active)", cfg.String())
}

func TestFranchisesConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"empty", "franchises: []", "no franchises"},
		{"missing id", "franchises:\n  - name: x", "id is required"},
		{"duplicate id", "franchises:\n  - {id: a, name: x}\n  - {id: a, name: y}", "duplicate id"},
		{"missing name", "franchises:\n  - {id: a}", "name is required"},
		{"bad latitude", "franchises:\n  - {id: a, name: x, latitude: 120}", "coordinates"},
		{"negative fee", "franchises:\n  - {id: a, name: x, delivery_fee: -1}", "cannot be negative"},
		{
			"bad day",
			"franchises:\n  - id: a\n    name: x\n    store_hours:\n      - {day_of_week: 7, open_time: \"09:00\", close_time: \"10:00\"}",
			"invalid day",
		},
		{
			"bad time",
			"franchises:\n  - id: a\n    name: x\n    store_hours:\n      - {day_of_week: 1, open_time: \"9am\", close_time: \"10:00\"}",
			"open_time",
		},
		{
			"duplicate day",
			"franchises:\n  - id: a\n    name: x\n    store_hours:\n      - {day_of_week: 1, is_closed: true}\n      - {day_of_week: 1, is_closed: true}",
			"duplicate day",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFranchisesConfig([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDiffFranchises(t *testing.T) {
	prev, err := ParseFranchisesConfig([]byte(franchisesYAML))
	require.NoError(t, err)

	change := DiffFranchises(nil, prev)
	assert.Equal(t, []string{"a", "b"}, change.Added)

	next, err := ParseFranchisesConfig([]byte(franchisesYAML))
	require.NoError(t, err)
	assert.True(t, DiffFranchises(prev, next).Empty())

	next.Franchises[0].StoreHours = []model.StoreHourEntry{{DayOfWeek: 1, OpenTime: "10:00", CloseTime: "20:00"}}
	next.Franchises[1].IsActive = true
	next.Franchises = append(next.Franchises, model.Franchise{ID: "c", Name: "Brixton"})

	change = DiffFranchises(prev, next)
	assert.Equal(t, []string{"c"}, change.Added)
	assert.Equal(t, []string{"a"}, change.HoursChanged)
	assert.Equal(t, []string{"b"}, change.Updated)
	assert.Empty(t, change.Removed)

	change = DiffFranchises(next, &FranchisesConfig{Franchises: next.Franchises[:1]})
	assert.Equal(t, []string{"b", "c"}, change.Removed)
}

func TestWatchFranchises(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "franchises.yaml", franchisesYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	var latest atomic.Pointer[FranchisesConfig]
	changes := make(chan CatalogChange, 4)
	err := WatchFranchises(ctx, path, 10*time.Millisecond, func(cfg *FranchisesConfig, change CatalogChange) {
		latest.Store(cfg)
		calls.Add(1)
		changes <- change
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"a", "b"}, (<-changes).Added)

	require.NoError(t, os.WriteFile(path, []byte("# comment only\n"+franchisesYAML), 0o644))
	assert.Never(t, func() bool { return calls.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("franchises: []\n"), 0o644))
	assert.Never(t, func() bool { return calls.Load() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.NotNil(t, latest.Load().GetFranchiseByID("a"))

	updated := franchisesYAML + `  - id: "c"
    name: "Brixton"
    is_active: true
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case change := <-changes:
		assert.Equal(t, []string{"c"}, change.Added)
		assert.Empty(t, change.Removed)
	case <-time.After(2 * time.Second):
		t.Fatal("catalog update not observed")
	}
	assert.NotNil(t, latest.Load().GetFranchiseByID("c"))
}

func TestWatchFranchises_InitialLoadFails(t *testing.T) {
	err := WatchFranchises(context.Background(), filepath.Join(t.TempDir(), "none.yaml"), time.Second, nil)
	assert.Error(t, err)
}
