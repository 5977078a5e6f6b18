package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
type Config struct {
	Port     string
	LogLevel string
	Database DatabaseConfig
	Auth     AuthConfig
	Email    EmailConfig
	Schedule ScheduleConfig
	Features Features
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SecureCookie    bool
}

// EmailConfig selects the delivery backend: SendGrid when an API key is set,
// SMTP when a host is set, otherwise messages are only logged.
type EmailConfig struct {
	From           string
	FromName       string
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
}

type ScheduleConfig struct {
	NotificationSweepInterval time.Duration
	TokenSweepInterval        time.Duration
	MaxLeadTime               time.Duration
}

const maxLeadTimeCeiling = 365 * 24 * time.Hour

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	duration := func(key string, def time.Duration) time.Duration {
		d, err := getDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	integer := func(key string, def int) int {
		n, err := getInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    integer("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:       os.Getenv("JWT_SECRET"),
			AccessTokenTTL:  duration("ACCESS_TOKEN_TTL", 60*time.Minute),
			RefreshTokenTTL: duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			SecureCookie:    os.Getenv("SECURE_COOKIE") == "true",
		},
		Email: EmailConfig{
			From:           getEnv("EMAIL_FROM", "noreply@birthdayreminder.local"),
			FromName:       getEnv("EMAIL_FROM_NAME", "Birthday Reminder"),
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       integer("SMTP_PORT", 587),
			SMTPUser:       os.Getenv("SMTP_USER"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		},
		Schedule: ScheduleConfig{
			NotificationSweepInterval: duration("NOTIFICATION_SWEEP_INTERVAL", 15*time.Second),
			TokenSweepInterval:        duration("TOKEN_SWEEP_INTERVAL", 12*time.Hour),
			MaxLeadTime:               duration("MAX_LEAD_TIME", 3*time.Hour),
		},
		Features: LoadFeatures(),
	}

	if len(errs) > 0 {
		return nil, errs[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}

	if c.Schedule.NotificationSweepInterval <= 0 || c.Schedule.TokenSweepInterval <= 0 {
		return fmt.Errorf("sweep intervals must be positive")
	}

	// A single one-year roll forward is only enough while the lead time stays under a year.
	if c.Schedule.MaxLeadTime <= 0 || c.Schedule.MaxLeadTime >= maxLeadTimeCeiling {
		return fmt.Errorf("MAX_LEAD_TIME must be between 0 and 365 days, got %s", c.Schedule.MaxLeadTime)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
