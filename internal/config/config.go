package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Address             string   `yaml:"address"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		AllowedOrigins      []string `yaml:"allowed_origins"`
		RateLimitPerSecond  float64  `yaml:"rate_limit_per_second"`
		RateLimitBurst      int      `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		SessionTTLHours int    `yaml:"session_ttl_hours"`
	} `yaml:"redis"`

	// API is the remote franchise backend. When disabled the catalog file is used.
	API struct {
		Enabled            bool    `yaml:"enabled"`
		BaseURL            string  `yaml:"base_url"`
		APIKey             string  `yaml:"api_key"`
		CacheTTLSeconds    int     `yaml:"cache_ttl_seconds"`
		TimeoutSeconds     int     `yaml:"timeout_seconds"`
		RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
		RateLimitBurst     int     `yaml:"rate_limit_burst"`
	} `yaml:"api"`

	Catalog struct {
		Path                  string `yaml:"path"`
		ReloadIntervalSeconds int    `yaml:"reload_interval_seconds"`
	} `yaml:"catalog"`

	Store struct {
		// HoursTimezone is the zone store hours are written in. Empty means the server's local zone.
		HoursTimezone string `yaml:"hours_timezone"`
	} `yaml:"store"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/storefront.db"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "data/backups"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "configs/franchises.yaml"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.API.Enabled && c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required when api is enabled")
	}
	if c.Server.RateLimitPerSecond < 0 || c.API.RateLimitPerSecond < 0 {
		return fmt.Errorf("rate_limit_per_second cannot be negative")
	}
	if c.Backup.Enabled && c.Backup.IntervalHours < 0 {
		return fmt.Errorf("backup.interval_hours cannot be negative")
	}
	if _, err := c.HoursLocation(); err != nil {
		return fmt.Errorf("store.hours_timezone: %w", err)
	}
	return nil
}

// HoursLocation returns the zone the clock is converted to before evaluating store hours.
func (c *Config) HoursLocation() (*time.Location, error) {
	if c.Store.HoursTimezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Store.HoursTimezone)
}

func (c *Config) ReadTimeout() time.Duration {
	if c.Server.ReadTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	if c.Server.WriteTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	if c.Redis.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Redis.SessionTTLHours) * time.Hour
}

func (c *Config) APICacheTTL() time.Duration {
	if c.API.CacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

func (c *Config) APITimeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) CatalogReloadInterval() time.Duration {
	if c.Catalog.ReloadIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.ReloadIntervalSeconds) * time.Second
}
