package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Grid       GridConfig       `yaml:"grid"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// GridConfig defines the daily grid of bookable slots. Slots are hourly,
// from StartHour (inclusive) to EndHour (exclusive).
type GridConfig struct {
	StartHour int `yaml:"start_hour"`
	EndHour   int `yaml:"end_hour"`
}

// Times returns the slot labels of the grid, in grid order.
func (g GridConfig) Times() []string {
	times := make([]string, 0, g.EndHour-g.StartHour)
	for h := g.StartHour; h < g.EndHour; h++ {
		times = append(times, fmt.Sprintf("%02d:00", h))
	}
	return times
}

// GatewayConfig holds the payment provider credentials and callback target.
type GatewayConfig struct {
	KeyID       string `yaml:"key_id"`
	KeySecret   string `yaml:"key_secret"`
	Currency    string `yaml:"currency"`
	CallbackURL string `yaml:"callback_url"`
}

// SweeperConfig controls the expiry of abandoned pending reservations.
type SweeperConfig struct {
	Enabled           bool          `yaml:"enabled"`
	IntervalSeconds   int           `yaml:"interval_seconds"`
	Interval          time.Duration `yaml:"-"` // Ignored by YAML parser
	MaxPendingMinutes int           `yaml:"max_pending_age_minutes"`
	MaxPendingAge     time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LoggingConfig controls the log level and optional rotating file output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Grid.StartHour == 0 && cfg.Grid.EndHour == 0 {
		cfg.Grid.StartHour = 9
		cfg.Grid.EndHour = 17
	}
	if cfg.Grid.StartHour < 0 || cfg.Grid.EndHour > 24 || cfg.Grid.EndHour <= cfg.Grid.StartHour {
		return nil, fmt.Errorf("invalid slot grid: start_hour=%d end_hour=%d", cfg.Grid.StartHour, cfg.Grid.EndHour)
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.Gateway.Currency == "" {
		cfg.Gateway.Currency = "INR"
	}

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 60
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second
	if cfg.Sweeper.MaxPendingMinutes <= 0 {
		cfg.Sweeper.MaxPendingMinutes = 30
	}
	cfg.Sweeper.MaxPendingAge = time.Duration(cfg.Sweeper.MaxPendingMinutes) * time.Minute

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}
