package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	CORSOrigins []string `yaml:"cors_origins"`
	RateLimit   string   `yaml:"rate_limit"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL          string `yaml:"url"`
	InvoiceQueue string `yaml:"invoice_queue"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type BookingConfig struct {
	GraceMinutes         int    `yaml:"grace_minutes"`
	GraceStrict          bool   `yaml:"grace_strict"`
	Timezone             string `yaml:"timezone"`
	ZonesCacheTTLSeconds int    `yaml:"zones_cache_ttl_seconds"`
	ReservationPrefix    string `yaml:"reservation_prefix"`
	FolioPrefix          string `yaml:"folio_prefix"`
}

// Location resolves the configured park timezone, UTC when unset.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(b.Timezone)
}

func (b BookingConfig) ZonesCacheTTL() time.Duration {
	return time.Duration(b.ZonesCacheTTLSeconds) * time.Second
}

type WorkerConfig struct {
	SweepIntervalSeconds    int `yaml:"sweep_interval_seconds"`
	ReminderIntervalMinutes int `yaml:"reminder_interval_minutes"`
	ReminderWindowMinutes   int `yaml:"reminder_window_minutes"`
	SweepLeaseSeconds       int `yaml:"sweep_lease_seconds"`
}

func (w WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(w.SweepIntervalSeconds) * time.Second
}

func (w WorkerConfig) ReminderInterval() time.Duration {
	return time.Duration(w.ReminderIntervalMinutes) * time.Minute
}

func (w WorkerConfig) ReminderWindow() time.Duration {
	return time.Duration(w.ReminderWindowMinutes) * time.Minute
}

func (w WorkerConfig) SweepLease() time.Duration {
	return time.Duration(w.SweepLeaseSeconds) * time.Second
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func LoadConfig(path string) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, then validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		HTTP:    HTTPConfig{Address: ":8080", RateLimit: "100-M"},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Kafka: KafkaConfig{
			EventsTopic:        "park.booking.events",
			NotificationsTopic: "park.notifications",
			GroupID:            "park-worker",
		},
		RabbitMQ: RabbitMQConfig{InvoiceQueue: "folio.invoice"},
		Booking: BookingConfig{
			Timezone:             "UTC",
			ZonesCacheTTLSeconds: 30,
			ReservationPrefix:    "RES",
			FolioPrefix:          "FOL",
		},
		Worker: WorkerConfig{
			SweepIntervalSeconds:    60,
			ReminderIntervalMinutes: 60,
			ReminderWindowMinutes:   60,
			SweepLeaseSeconds:       50,
		},
		Log: LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 14},
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.RabbitMQ.URL = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("GRACE_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GRACE_MINUTES %q: %w", v, err)
		}
		c.Booking.GraceMinutes = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Booking.GraceMinutes < 0 {
		return errors.New("booking.grace_minutes must not be negative")
	}
	if _, err := c.Booking.Location(); err != nil {
		return fmt.Errorf("booking.timezone: %w", err)
	}
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	if c.Worker.SweepIntervalSeconds <= 0 {
		return errors.New("worker.sweep_interval_seconds must be positive")
	}
	return nil
}
