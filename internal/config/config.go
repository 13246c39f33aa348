// Package config reads server settings from the environment. A .env file in
// the working directory, when present, fills in variables that are not
// already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/spendsplit/internal/notify"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
)

// Config holds the server settings.
type Config struct {
	Port int

	StoreDriver   string
	DBPath        string
	MySQLDSN      string
	MongoURI      string
	MongoDatabase string

	JWTSecret string
	TokenTTL  time.Duration

	// SMTP is the zero value when SMTP_HOST is unset; email is then dropped.
	SMTP             notify.SMTPConfig
	ReminderSchedule string

	LogLevel string
}

// SMTPEnabled reports whether an SMTP relay is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != ""
}

// Load reads the given env files (".env" when none are named) and then the
// process environment. Missing env files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	ttl, err := durationEnv("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:          port,
		StoreDriver:   getEnv("STORE_DRIVER", DriverSQLite),
		DBPath:        getEnv("DB_PATH", "./data/spendsplit.db"),
		MySQLDSN:      os.Getenv("MYSQL_DSN"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "spendsplit"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      ttl,
		SMTP: notify.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", notify.DefaultReminderSchedule),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}

	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverMySQL:
		if c.MySQLDSN == "" {
			return errors.New("config: MYSQL_DSN must be set for the mysql driver")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI must be set for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.SMTPEnabled() && c.SMTP.From == "" && c.SMTP.Username == "" {
		return errors.New("config: SMTP_FROM or SMTP_USER must be set when SMTP_HOST is")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
