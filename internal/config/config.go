// Package config reads and writes the JSON settings file shared by the CLI
// and the web server: per-provider API keys plus the default provider and
// language. The on-disk field names are stable so existing config.json
// files keep working.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	DefaultProvider = "google"
	DefaultLanguage = "en-US"
)

type Config struct {
	APIKeys         map[string]string `json:"api_keys"`
	DefaultProvider string            `json:"default_api"`
	DefaultLanguage string            `json:"default_language"`
}

// Default returns the settings used when no config file exists yet.
func Default() *Config {
	return &Config{
		APIKeys:         map[string]string{},
		DefaultProvider: DefaultProvider,
		DefaultLanguage: DefaultLanguage,
	}
}

// Load reads the config file at path. A missing file is not an error; the
// defaults are returned so first runs work without setup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config as indented JSON, creating parent directories as
// needed. Keys are secrets, so the file is not group or world readable.
func (c *Config) Save(path string) error {
	c.normalize()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// APIKey returns the stored key for a provider, falling back to the
// DICTATE_<PROVIDER>_KEY environment variable so the web server can run
// without a config file.
func (c *Config) APIKey(provider string) string {
	if key, ok := c.APIKeys[provider]; ok && key != "" {
		return key
	}
	envKey := "DICTATE_" + strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_KEY"
	return os.Getenv(envKey)
}

// SetAPIKey stores a key; an empty key removes the entry.
func (c *Config) SetAPIKey(provider, key string) {
	if c.APIKeys == nil {
		c.APIKeys = map[string]string{}
	}
	if strings.TrimSpace(key) == "" {
		delete(c.APIKeys, provider)
		return
	}
	c.APIKeys[provider] = strings.TrimSpace(key)
}

// ConfiguredProviders lists providers that have a stored key, sorted for
// stable display.
func (c *Config) ConfiguredProviders() []string {
	names := make([]string, 0, len(c.APIKeys))
	for name, key := range c.APIKeys {
		if key != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (c *Config) normalize() {
	if c.APIKeys == nil {
		c.APIKeys = map[string]string{}
	}
	if strings.TrimSpace(c.DefaultProvider) == "" {
		c.DefaultProvider = DefaultProvider
	}
	if strings.TrimSpace(c.DefaultLanguage) == "" {
		c.DefaultLanguage = DefaultLanguage
	}
}
