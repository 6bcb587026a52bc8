// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration sources for competition layouts.
const (
	SourcePostgres = "postgres"
	SourceYAML     = "yaml"
	SourceBadger   = "badger"
	SourceMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// JWT signing secret for operator tokens.
	JWTSecret string
	// Operators allowed to mint password hashes.
	AdminUsers []string

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// Where competition configurations come from.
	ConfigSource        string
	ConfigFile          string
	BadgerDir           string
	DefaultOverlapLimit int

	// Per-subscriber queue length for state change streams.
	SubscriberBuffer int

	// MySQL – used only by cmd/migrate.
	MySQLDSN string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() (*Config, error) {
	v := newViper()

	// Defaults
	v.SetDefault("DB_USER", "timing")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "racetiming")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("PORT", ":11001")
	v.SetDefault("TLS_DOMAINS", "")
	v.SetDefault("DEBUG", false)
	v.SetDefault("CONFIG_SOURCE", SourcePostgres)
	v.SetDefault("CONFIG_FILE", "competitions.yaml")
	v.SetDefault("BADGER_DIR", "./data/badger")
	v.SetDefault("DEFAULT_OVERLAP_LIMIT", 2)
	v.SetDefault("SUBSCRIBER_BUFFER", 128)
	v.SetDefault("ADMIN_USERS", "admin")

	cfg := &Config{
		DatabaseURL:         v.GetString("DATABASE_URL"),
		DBUser:              v.GetString("DB_USER"),
		DBPass:              v.GetString("DB_PASS"),
		DBHost:              v.GetString("DB_HOST"),
		DBPort:              v.GetString("DB_PORT"),
		DBName:              v.GetString("DB_NAME"),
		DBSSLMode:           v.GetString("DB_SSLMODE"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		AdminUsers:          splitTrimmed(v.GetString("ADMIN_USERS")),
		Debug:               v.GetBool("DEBUG"),
		Port:                v.GetString("PORT"),
		TLSDomains:          splitTrimmed(v.GetString("TLS_DOMAINS")),
		ConfigSource:        strings.ToLower(strings.TrimSpace(v.GetString("CONFIG_SOURCE"))),
		ConfigFile:          v.GetString("CONFIG_FILE"),
		BadgerDir:           v.GetString("BADGER_DIR"),
		DefaultOverlapLimit: v.GetInt("DEFAULT_OVERLAP_LIMIT"),
		SubscriberBuffer:    v.GetInt("SUBSCRIBER_BUFFER"),
		MySQLDSN:            v.GetString("MYSQL_DSN"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" && c.DBPass == "" {
		return errors.New("config: DATABASE_URL or DB_PASS must be set")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	switch c.ConfigSource {
	case SourcePostgres, SourceBadger, SourceMemory:
	case SourceYAML:
		if c.ConfigFile == "" {
			return errors.New("config: CONFIG_FILE must be set when CONFIG_SOURCE=yaml")
		}
	default:
		return fmt.Errorf("config: unknown CONFIG_SOURCE %q", c.ConfigSource)
	}
	if c.DefaultOverlapLimit < 1 {
		return errors.New("config: DEFAULT_OVERLAP_LIMIT must be at least 1")
	}
	if c.SubscriberBuffer < 1 {
		return errors.New("config: SUBSCRIBER_BUFFER must be at least 1")
	}
	return nil
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
