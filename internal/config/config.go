// Package config loads eventmerge settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/pfrederiksen/eventmerge/internal/dedup"
	"github.com/pfrederiksen/eventmerge/internal/logger"
)

// EnvFileVar names an explicit .env file that replaces the default lookup
const EnvFileVar = "EVENTMERGE_ENV_FILE"

// Config holds the process settings. CLI flags override these values.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	StorePath       string `envconfig:"EVENTMERGE_STORE_PATH" default:"data/events.json"`
	LocationsPath   string `envconfig:"EVENTMERGE_LOCATIONS_PATH" default:"data/locations.json"`
	CommunitiesFile string `envconfig:"EVENTMERGE_COMMUNITIES_FILE" default:""`
	URLMatch        string `envconfig:"EVENTMERGE_URL_MATCH" default:"host"`
	MetricsFile     string `envconfig:"EVENTMERGE_METRICS_FILE" default:""`
}

// Load reads the environment into a Config and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorePath) == "" {
		return fmt.Errorf("EVENTMERGE_STORE_PATH is required")
	}
	if strings.TrimSpace(c.LocationsPath) == "" {
		return fmt.Errorf("EVENTMERGE_LOCATIONS_PATH is required")
	}
	if _, err := dedup.NewURLMatcher(dedup.MatchMode(c.URLMatch)); err != nil {
		return fmt.Errorf("EVENTMERGE_URL_MATCH: %w", err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// LoadEnvFile loads a .env file into the process environment. EVENTMERGE_ENV_FILE
// takes precedence over path. A missing default file is not an error; the
// returned path is empty when nothing was loaded.
func LoadEnvFile(path string) (string, error) {
	if custom := strings.TrimSpace(os.Getenv(EnvFileVar)); custom != "" {
		if err := godotenv.Overload(custom); err != nil {
			return "", fmt.Errorf("loading %s=%s: %w", EnvFileVar, custom, err)
		}
		return custom, nil
	}

	if path == "" {
		path = ".env"
	}
	if err := godotenv.Overload(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("loading env file %s: %w", path, err)
	}
	return path, nil
}
