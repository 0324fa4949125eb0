// Package config handles Vantage configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/vantage/config.yaml, /etc/vantage/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vantage", "config.yaml"))
	}

	paths = append(paths, "/etc/vantage/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Vantage configuration.
type Config struct {
	Listen    ListenConfig  `yaml:"listen"`
	Backend   BackendConfig `yaml:"backend"`
	Refresh   RefreshConfig `yaml:"refresh"`
	DataDir   string        `yaml:"data_dir"`
	BrandName string        `yaml:"brand_name"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"` // "text" (default) or "json"
}

// Validate checks config invariants that Load cannot express. Call it
// once after loading, before wiring components.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log_format: %q (expected text or json)", c.LogFormat)
	}
	return nil
}

// ListenConfig defines the console's own HTTP server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// BackendConfig defines the vector-database dashboard API connection.
type BackendConfig struct {
	// URL is the base URL of the backend dashboard API,
	// e.g. "https://vectors.example.com".
	URL string `yaml:"url"`
	// APIKey is an optional static api-key header forwarded on every
	// request, independent of the operator's bearer token.
	APIKey string `yaml:"api_key"`
	// TLSInsecureSkipVerify skips certificate verification. Only for
	// local or self-signed deployments.
	TLSInsecureSkipVerify bool `yaml:"tls_insecure_skip_verify"`
}

// RefreshConfig defines the auto-refresh poller settings.
type RefreshConfig struct {
	// IntervalSec is the auto-refresh period in seconds. The operator
	// can change it at runtime from the settings page; this is only the
	// startup default.
	IntervalSec int `yaml:"interval_sec"`
}

// Interval returns the refresh period as a duration, falling back to
// the 30-second default when unset.
func (r RefreshConfig) Interval() time.Duration {
	if r.IntervalSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.IntervalSec) * time.Second
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen:    ListenConfig{Port: 8084},
		Refresh:   RefreshConfig{IntervalSec: 30},
		DataDir:   ".",
		BrandName: "Vantage",
	}
}
