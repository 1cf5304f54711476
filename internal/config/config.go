// Package config loads the loom.json settings file used by the loom CLI
// and the devtools server.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/loom-ui/loom/v2/internal/diag"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "loom.json"

	// DefaultDevtoolsAddr is the default devtools server listen address.
	DefaultDevtoolsAddr = "localhost:6568"

	// DefaultMaxUpdateCount is the default circular-update threshold.
	DefaultMaxUpdateCount = 100
)

// Config represents the complete loom.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Dev enables development-mode diagnostics (duplicate-key warnings,
	// hydration mismatch reports, setter guards).
	Dev bool `json:"dev,omitempty"`

	// MaxUpdateCount is the number of times a single watcher may re-queue
	// during one flush before it is dropped as circular.
	MaxUpdateCount int `json:"maxUpdateCount,omitempty"`

	// Devtools contains devtools server configuration.
	Devtools DevtoolsConfig `json:"devtools,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevtoolsConfig contains devtools server settings.
type DevtoolsConfig struct {
	// Enabled controls whether the devtools server starts.
	Enabled bool `json:"enabled,omitempty"`

	// Addr is the listen address for the devtools server.
	Addr string `json:"addr,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		MaxUpdateCount: DefaultMaxUpdateCount,
		Devtools: DevtoolsConfig{
			Addr:      DefaultDevtoolsAddr,
			Namespace: "loom",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// loom.json in the directory; a missing file yields the defaults.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, &diag.Error{
			Code:     "L401",
			Category: diag.CategoryConfig,
			Message:  "failed to read " + path,
			Wrapped:  err,
		}
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, &diag.Error{
			Code:     "L402",
			Category: diag.CategoryConfig,
			Message:  "failed to parse " + path + ": check that it is valid JSON",
			Wrapped:  err,
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.MaxUpdateCount == 0 {
		c.MaxUpdateCount = DefaultMaxUpdateCount
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Devtools.Namespace == "" {
		c.Devtools.Namespace = "loom"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxUpdateCount < 1 {
		return diag.Newf("L403", diag.CategoryConfig,
			"maxUpdateCount must be at least 1, got %d", c.MaxUpdateCount)
	}
	return nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
