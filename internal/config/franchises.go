package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"grabbi/internal/model"
	"grabbi/internal/storehours"
)

// FranchiseDefaults are applied to franchises that leave a field unset.
type FranchiseDefaults struct {
	DeliveryRadius  float64                `yaml:"delivery_radius"`
	DeliveryFee     float64                `yaml:"delivery_fee"`
	FreeDeliveryMin float64                `yaml:"free_delivery_min"`
	StoreHours      []model.StoreHourEntry `yaml:"store_hours"`
}

// FranchisesConfig is the root of franchises.yaml, the static franchise catalog.
type FranchisesConfig struct {
	Franchises []model.Franchise `yaml:"franchises"`
	Defaults   FranchiseDefaults `yaml:"defaults"`
}

// LoadFranchisesConfig loads and validates the franchise catalog from a YAML file.
func LoadFranchisesConfig(path string) (*FranchisesConfig, error) {
	if path == "" {
		path = "configs/franchises.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read franchises config: %w", err)
	}

	return ParseFranchisesConfig(data)
}

// ParseFranchisesConfig parses and validates franchises.yaml content.
func ParseFranchisesConfig(data []byte) (*FranchisesConfig, error) {
	var cfg FranchisesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse franchises config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate franchises config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *FranchisesConfig) Validate() error {
	if len(c.Franchises) == 0 {
		return fmt.Errorf("no franchises defined")
	}

	ids := make(map[string]bool)
	for i, f := range c.Franchises {
		if f.ID == "" {
			return fmt.Errorf("franchise[%d]: id is required", i)
		}
		if ids[f.ID] {
			return fmt.Errorf("franchise[%d]: duplicate id '%s'", i, f.ID)
		}
		ids[f.ID] = true

		if f.Name == "" {
			return fmt.Errorf("franchise[%d]: name is required", i)
		}
		if f.Latitude < -90 || f.Latitude > 90 || f.Longitude < -180 || f.Longitude > 180 {
			return fmt.Errorf("franchise[%d]: coordinates out of range", i)
		}
		if f.DeliveryRadius < 0 || f.DeliveryFee < 0 || f.FreeDeliveryMin < 0 {
			return fmt.Errorf("franchise[%d]: delivery settings cannot be negative", i)
		}
		if err := validateHours(f.StoreHours, fmt.Sprintf("franchise[%d].store_hours", i)); err != nil {
			return err
		}
	}

	return validateHours(c.Defaults.StoreHours, "defaults.store_hours")
}

// validateHours checks a weekly schedule. The evaluator tolerates bad entries,
// but the catalog we own should not contain any.
func validateHours(hours []model.StoreHourEntry, prefix string) error {
	days := make(map[int]bool)
	for i, h := range hours {
		if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
			return fmt.Errorf("%s[%d]: invalid day %d, must be 0-6 (0=Sun)", prefix, i, h.DayOfWeek)
		}
		if days[h.DayOfWeek] {
			return fmt.Errorf("%s[%d]: duplicate day %d", prefix, i, h.DayOfWeek)
		}
		days[h.DayOfWeek] = true

		if h.IsClosed {
			continue
		}
		if _, ok := storehours.ParseClock(h.OpenTime); !ok {
			return fmt.Errorf("%s[%d].open_time: invalid format '%s', expected HH:MM", prefix, i, h.OpenTime)
		}
		if _, ok := storehours.ParseClock(h.CloseTime); !ok {
			return fmt.Errorf("%s[%d].close_time: invalid format '%s', expected HH:MM", prefix, i, h.CloseTime)
		}
	}
	return nil
}

// applyDefaults fills unset delivery settings and hours from Defaults.
func (c *FranchisesConfig) applyDefaults() {
	for i := range c.Franchises {
		f := &c.Franchises[i]
		if f.DeliveryRadius == 0 {
			f.DeliveryRadius = c.Defaults.DeliveryRadius
		}
		if f.DeliveryFee == 0 {
			f.DeliveryFee = c.Defaults.DeliveryFee
		}
		if f.FreeDeliveryMin == 0 {
			f.FreeDeliveryMin = c.Defaults.FreeDeliveryMin
		}
		if len(f.StoreHours) == 0 && len(c.Defaults.StoreHours) > 0 {
			f.StoreHours = append([]model.StoreHourEntry(nil), c.Defaults.StoreHours...)
		}
	}
}

// GetFranchiseByID returns the franchise with id or nil.
func (c *FranchisesConfig) GetFranchiseByID(id string) *model.Franchise {
	for i := range c.Franchises {
		if c.Franchises[i].ID == id {
			return &c.Franchises[i]
		}
	}
	return nil
}

// GetActiveFranchises returns only active franchises.
func (c *FranchisesConfig) GetActiveFranchises() []model.Franchise {
	result := make([]model.Franchise, 0)
	for _, f := range c.Franchises {
		if f.IsActive {
			result = append(result, f)
		}
	}
	return result
}

// String returns a summary of the configuration.
func (c *FranchisesConfig) String() string {
	active := 0
	for _, f := range c.Franchises {
		if f.IsActive {
			active++
		}
	}
	return fmt.Sprintf("FranchisesConfig: %d franchises (%d active)", len(c.Franchises), active)
}
