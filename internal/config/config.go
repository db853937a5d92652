// Package config reads labsearch settings from the environment.
//
// Variables carry the LABSEARCH_ prefix (LABSEARCH_DATABASE_URL, ...). A
// .env file, when present, is loaded first; variables already set in the
// environment win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "LABSEARCH"

// Config represents options given in the environment.
type Config struct {
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ListenAddr      string `envconfig:"LISTEN_ADDR" default:":8080"`
	StorePath       string `envconfig:"STORE_PATH" default:"labsearch.db"`
	SchemaDir       string `envconfig:"SCHEMA_DIR"`       // optional CUE overlay
	PropertyCatalog string `envconfig:"PROPERTY_CATALOG"` // optional YAML
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads envFiles (".env" when none are given), then the environment.
// Missing env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("error reading configuration from environment: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%s_LOG_LEVEL: %w", Prefix, err)
	}
	return level, nil
}

// RequireDatabase fails when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s_DATABASE_URL must be configured", Prefix)
	}
	return nil
}
