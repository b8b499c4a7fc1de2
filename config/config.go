package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"device-lending-backend/internal/model"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Reservation ReservationConfig `yaml:"reservation"`
	Sweep       SweepConfig       `yaml:"sweep"`
	Push        PushConfig        `yaml:"push"`
	WorkerPool  WorkerPoolConfig  `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds the connection settings for the session store.
type RedisConfig struct {
	Addr              string `yaml:"addr"`
	Password          string `yaml:"password"`
	DB                int    `yaml:"db"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

// ReservationConfig holds the lifecycle policy knobs. Durations are policy
// defaults taken from lending desk practice, not hardcoded rules.
type ReservationConfig struct {
	CollectionWindowHours int                          `yaml:"collection_window_hours"`
	DefaultLoanDays       int                          `yaml:"default_loan_days"`
	LoanDaysByCategory    map[model.DeviceCategory]int `yaml:"loan_days_by_category"`
	CollectionWindow      time.Duration                `yaml:"-"`
}

// LoanPeriod returns the loan period for a catalogue category.
func (r ReservationConfig) LoanPeriod(category model.DeviceCategory) time.Duration {
	days, ok := r.LoanDaysByCategory[category]
	if !ok || days <= 0 {
		days = r.DefaultLoanDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// SweepConfig controls the background expiry sweep.
type SweepConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for staff web push notifications.
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

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills zero values with sane defaults. Exported so tests can
// build configs without a yaml file.
func ApplyDefaults(cfg *Config) {
	if cfg.Reservation.CollectionWindowHours <= 0 {
		cfg.Reservation.CollectionWindowHours = 24
	}
	cfg.Reservation.CollectionWindow = time.Duration(cfg.Reservation.CollectionWindowHours) * time.Hour

	if cfg.Reservation.DefaultLoanDays <= 0 {
		cfg.Reservation.DefaultLoanDays = 7
	}
	if cfg.Reservation.LoanDaysByCategory == nil {
		cfg.Reservation.LoanDaysByCategory = map[model.DeviceCategory]int{
			model.CategoryLaptop: 14,
			model.CategoryTablet: 14,
			model.CategoryCamera: 7,
		}
	}

	if cfg.Sweep.IntervalSeconds <= 0 {
		cfg.Sweep.IntervalSeconds = 60
	}
	cfg.Sweep.Interval = time.Duration(cfg.Sweep.IntervalSeconds) * time.Second

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Redis.SessionTTLMinutes <= 0 {
		cfg.Redis.SessionTTLMinutes = 60
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
