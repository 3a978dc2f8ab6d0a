package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		BookingAddr string `yaml:"booking_addr"`
		RoomAddr    string `yaml:"room_addr"`
		UserAddr    string `yaml:"user_addr"`
	} `yaml:"server"`

	Database struct {
		BookingPath string `yaml:"booking_path"`
		RoomPath    string `yaml:"room_path"`
		UserPath    string `yaml:"user_path"`
	} `yaml:"database"`

	Services struct {
		RoomBaseURL string `yaml:"room_base_url"`
		UserBaseURL string `yaml:"user_base_url"`
	} `yaml:"services"`

	Redis struct {
		Enabled         bool   `yaml:"enabled"`
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		Path          string `yaml:"path"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		GraceMinutes int `yaml:"grace_minutes"`
	} `yaml:"booking"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	for _, dbPath := range []string{cfg.Database.BookingPath, cfg.Database.RoomPath, cfg.Database.UserPath} {
		if err = os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.BookingAddr == "" {
		c.Server.BookingAddr = ":8080"
	}
	if c.Server.RoomAddr == "" {
		c.Server.RoomAddr = ":8081"
	}
	if c.Server.UserAddr == "" {
		c.Server.UserAddr = ":8082"
	}
	if c.Database.BookingPath == "" {
		c.Database.BookingPath = "data/bookings.db"
	}
	if c.Database.RoomPath == "" {
		c.Database.RoomPath = "data/rooms.db"
	}
	if c.Database.UserPath == "" {
		c.Database.UserPath = "data/users.db"
	}
	if c.Services.RoomBaseURL == "" {
		c.Services.RoomBaseURL = "http://localhost:8081"
	}
	if c.Services.UserBaseURL == "" {
		c.Services.UserBaseURL = "http://localhost:8082"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "backups"
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 14
	}
	if c.Redis.CacheTTLSeconds <= 0 {
		c.Redis.CacheTTLSeconds = 60
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

// GraceWindow is how far in the past a booking may still start.
func (c *Config) GraceWindow() time.Duration {
	if c.Booking.GraceMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Booking.GraceMinutes) * time.Minute
}

// CacheTTL is the redis read-through cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// BackupInterval is how often the booking database gets copied aside.
func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

// BackupRetention is how long backup files are kept.
func (c *Config) BackupRetention() time.Duration {
	return time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
}
