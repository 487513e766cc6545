package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CLI stores beamsctl settings. Values come from an optional YAML file,
// then environment variables, then command line flags.
type CLI struct {
	InstanceID string        `yaml:"instance_id"`
	Endpoint   string        `yaml:"endpoint"`
	DBPath     string        `yaml:"db_path"`
	RelayURL   string        `yaml:"relay_url"`
	Scope      string        `yaml:"scope"`
	UserAgent  string        `yaml:"user_agent"`
	LogLevel   string        `yaml:"log_level"`
	Timeout    time.Duration `yaml:"timeout"`
	Auth       AuthConfig    `yaml:"auth"`
}

// AuthConfig configures the token provider used by set-user.
type AuthConfig struct {
	URL         string            `yaml:"url"`
	Headers     map[string]string `yaml:"headers"`
	QueryParams map[string]string `yaml:"query_params"`
}

// DefaultCLIPath is ~/.config/beams/beamsctl.yaml, or "" when the home
// directory is unknown.
func DefaultCLIPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "beams", "beamsctl.yaml")
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "beams.db"
	}
	return filepath.Join(dir, "beams", "beams.db")
}

// LoadCLI reads path (a missing file is not an error) and overlays BEAMS_*
// environment variables.
func LoadCLI(path string) (CLI, error) {
	cfg := CLI{
		Scope:    "/",
		LogLevel: "warn",
		Timeout:  10 * time.Second,
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return CLI{}, fmt.Errorf("read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return CLI{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.InstanceID = getenv("BEAMS_INSTANCE_ID", cfg.InstanceID)
	cfg.Endpoint = getenv("BEAMS_ENDPOINT", cfg.Endpoint)
	cfg.DBPath = getenv("BEAMS_DB_PATH", cfg.DBPath)
	cfg.RelayURL = getenv("BEAMS_RELAY_URL", cfg.RelayURL)
	cfg.Auth.URL = getenv("BEAMS_AUTH_URL", cfg.Auth.URL)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.Timeout = parseDuration("BEAMS_TIMEOUT", cfg.Timeout)

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	if cfg.RelayURL == "" {
		cfg.RelayURL = cfg.Endpoint
	}
	return cfg, nil
}
