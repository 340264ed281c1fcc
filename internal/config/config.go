// Package config provides runtime configuration for the Dressify edge server.
// It uses Viper to load settings from an optional file, a .env file, and
// environment variables. CLI flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration for Dressify.
type Config struct {
	// ── Edge server ──────────────────────────────────────────────────────────
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// StaticDir overrides the embedded web assets with a directory on disk.
	StaticDir string `mapstructure:"static_dir"`
	// ShutdownTimeout bounds graceful shutdown, in seconds.
	ShutdownTimeout int `mapstructure:"shutdown_timeout_seconds"`

	// ── Backend ──────────────────────────────────────────────────────────────
	// BackendURL is the origin /api and /images are proxied to.
	BackendURL     string `mapstructure:"backend_url"`
	BackendTimeout int    `mapstructure:"backend_timeout_seconds"`

	// ── Storefront ───────────────────────────────────────────────────────────
	// WidgetURL is the public URL of this server as seen by host pages.
	// The embed script points its iframe here and trusts only its origin.
	WidgetURL        string `mapstructure:"widget_url"`
	ItemsPerCategory int    `mapstructure:"items_per_category"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads config from file (./config.yaml or ~/.dressify/config.yaml, or
// configFile when non-empty) and falls back to defaults. A .env file in the
// working directory is applied first; variables already present in the
// environment win. Environment variables (PORT, BACKEND_URL, ...) override
// file values.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	v := viper.New()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3000)
	v.SetDefault("static_dir", "")
	v.SetDefault("shutdown_timeout_seconds", 5)
	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("backend_timeout_seconds", 30)
	v.SetDefault("widget_url", "")
	v.SetDefault("items_per_category", 8)
	v.SetDefault("log_level", "info")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dressify")
	}
	if err := v.ReadInConfig(); err != nil {
		// config file is optional unless named explicitly
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills derived values and validates the result. Call it again
// after mutating a loaded Config (for example from CLI flags).
func (c *Config) Normalize() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	c.BackendURL = strings.TrimRight(c.BackendURL, "/")
	if _, err := parseHTTPURL(c.BackendURL); err != nil {
		return fmt.Errorf("backend_url: %w", err)
	}
	if c.WidgetURL == "" {
		c.WidgetURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	if _, err := parseHTTPURL(c.WidgetURL); err != nil {
		return fmt.Errorf("widget_url: %w", err)
	}
	if c.ItemsPerCategory <= 0 {
		c.ItemsPerCategory = 8
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Addr is the listen address for the edge server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BackendTimeoutDuration returns the backend client timeout; zero disables it.
func (c *Config) BackendTimeoutDuration() time.Duration {
	return time.Duration(c.BackendTimeout) * time.Second
}

// ShutdownTimeoutDuration returns the graceful shutdown deadline.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ShutdownTimeout) * time.Second
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	return u, nil
}
