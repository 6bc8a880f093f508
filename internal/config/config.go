// Package config loads debtbook settings from an optional TOML file, a
// .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/mmynk/debtbook/pkg/logging"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// ShutdownTimeout bounds graceful shutdown, e.g. "10s".
	ShutdownTimeout string `toml:"shutdown_timeout"`
	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string `toml:"allowed_origin"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	// TokenTTL is how long issued tokens stay valid, e.g. "24h".
	TokenTTL string `toml:"token_ttl"`
}

type LedgerConfig struct {
	// DefaultCurrency is used for lazily created default accounts.
	DefaultCurrency string `toml:"default_currency"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "10s",
			AllowedOrigin:   "*",
		},
		Database: DatabaseConfig{Path: "./data/debtbook.db"},
		Auth:     AuthConfig{TokenTTL: "24h"},
		Ledger:   LedgerConfig{DefaultCurrency: "KES"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path names an optional TOML file; an
// empty path skips it. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("DEBTBOOK_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("DEBTBOOK_PORT", c.Server.Port)
	c.Server.AllowedOrigin = getEnv("DEBTBOOK_ALLOWED_ORIGIN", c.Server.AllowedOrigin)
	c.Database.Path = getEnv("DEBTBOOK_DB_PATH", c.Database.Path)
	c.Auth.JWTSecret = getEnv("DEBTBOOK_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenTTL = getEnv("DEBTBOOK_TOKEN_TTL", c.Auth.TokenTTL)
	c.Ledger.DefaultCurrency = getEnv("DEBTBOOK_DEFAULT_CURRENCY", c.Ledger.DefaultCurrency)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// Validate checks the configuration for use by the server. Every problem
// is reported, not just the first.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	if _, err := parseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %q: %v", c.Server.ShutdownTimeout, err))
	}
	if c.Database.Path == "" {
		errs = append(errs, "database path cannot be empty")
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "JWT secret is required (DEBTBOOK_JWT_SECRET)")
	} else if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, "JWT secret must be at least 16 characters")
	}
	if _, err := parseDuration(c.Auth.TokenTTL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid token TTL %q: %v", c.Auth.TokenTTL, err))
	}
	if len(c.Ledger.DefaultCurrency) != 3 {
		errs = append(errs, fmt.Sprintf("invalid default currency %q: must be a 3-letter code", c.Ledger.DefaultCurrency))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// TokenDuration returns the parsed token lifetime. Call after Validate.
func (c *Config) TokenDuration() time.Duration {
	d, _ := parseDuration(c.Auth.TokenTTL)
	return d
}

// ShutdownDuration returns the parsed shutdown timeout. Call after Validate.
func (c *Config) ShutdownDuration() time.Duration {
	d, _ := parseDuration(c.Server.ShutdownTimeout)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be positive")
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		// Out-of-range sentinel so Validate reports the bad value.
		return -1
	}
	return fallback
}
