package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Storage   StorageConfig   `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Kafka     KafkaConfig     `mapstructure:",squash"`
	Auth      AuthConfig      `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
	Timezone     string `mapstructure:"TIMEZONE"`
}

type StorageConfig struct {
	Driver          string `mapstructure:"STORAGE_DRIVER"`
	ReceiptSequence string `mapstructure:"RECEIPT_SEQUENCER"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime string `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	URL             string `mapstructure:"REDIS_URL"`
	SummaryCacheTTL string `mapstructure:"SUMMARY_CACHE_TTL"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"KAFKA_BROKERS"`
	Topic   string `mapstructure:"KAFKA_TOPIC"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"JWT_SECRET"`
	JWTTTL    string `mapstructure:"JWT_TTL"`
}

type SchedulerConfig struct {
	StatusCron         string `mapstructure:"SCHEDULER_STATUS_CRON"`
	ReminderCron       string `mapstructure:"SCHEDULER_REMINDER_CRON"`
	ReminderWithinDays int    `mapstructure:"REMINDER_WITHIN_DAYS"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	devJWTSecret = "khaata-dev-secret"
)

var defaults = map[string]any{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "15s",
	"SERVER_WRITE_TIMEOUT":       "15s",
	"TIMEZONE":                   "Asia/Kolkata",
	"STORAGE_DRIVER":             DriverMemory,
	"RECEIPT_SEQUENCER":          DriverMemory,
	"DATABASE_URL":               "",
	"DATABASE_MAX_OPEN_CONNS":    25,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "30m",
	"REDIS_URL":                  "",
	"SUMMARY_CACHE_TTL":          "5m",
	"KAFKA_BROKERS":              "",
	"KAFKA_TOPIC":                "khaata.ledger",
	"JWT_SECRET":                 devJWTSecret,
	"JWT_TTL":                    "24h",
	"SCHEDULER_STATUS_CRON":      "0 5 0 * * *",
	"SCHEDULER_REMINDER_CRON":    "0 0 9 * * *",
	"REMINDER_WITHIN_DAYS":       3,
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
	"HEALTH_CHECK_TIMEOUT":       "5s",
}

// Load reads configuration from environment variables, with an optional .env
// file filling in anything the environment leaves unset.
func Load() (*Config, error) {
	// Don't fail if .env file doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be memory or postgres, got %q", c.Storage.Driver)
	}

	switch c.Storage.ReceiptSequence {
	case DriverMemory:
		if c.Storage.Driver == DriverPostgres {
			return fmt.Errorf("RECEIPT_SEQUENCER=memory cannot back a postgres store")
		}
	case DriverPostgres:
		if c.Storage.Driver != DriverPostgres {
			return fmt.Errorf("RECEIPT_SEQUENCER=postgres requires STORAGE_DRIVER=postgres")
		}
	case DriverRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when RECEIPT_SEQUENCER=redis")
		}
	default:
		return fmt.Errorf("RECEIPT_SEQUENCER must be memory, postgres or redis, got %q", c.Storage.ReceiptSequence)
	}

	if c.IsProduction() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == devJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Scheduler.ReminderWithinDays < 0 {
		return fmt.Errorf("REMINDER_WITHIN_DAYS must not be negative")
	}

	durations := map[string]string{
		"SERVER_READ_TIMEOUT":        c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":       c.Server.WriteTimeout,
		"DATABASE_CONN_MAX_LIFETIME": c.Database.ConnMaxLifetime,
		"SUMMARY_CACHE_TTL":          c.Redis.SummaryCacheTTL,
		"JWT_TTL":                    c.Auth.JWTTTL,
		"HEALTH_CHECK_TIMEOUT":       c.Health.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
	}

	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE must be a valid IANA zone: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Location is the zone calendar dates are interpreted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) ReadTimeout() time.Duration {
	return mustDuration(c.Server.ReadTimeout)
}

func (c *Config) WriteTimeout() time.Duration {
	return mustDuration(c.Server.WriteTimeout)
}

func (c *Config) ConnMaxLifetime() time.Duration {
	return mustDuration(c.Database.ConnMaxLifetime)
}

func (c *Config) SummaryCacheTTL() time.Duration {
	return mustDuration(c.Redis.SummaryCacheTTL)
}

func (c *Config) JWTTTL() time.Duration {
	return mustDuration(c.Auth.JWTTTL)
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	return mustDuration(c.Health.Timeout)
}

// KafkaBrokers splits the comma separated broker list. An empty result means
// events are not published.
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// mustDuration is only called on values Validate has already parsed.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
