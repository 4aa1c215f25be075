// Package config handles CLI configuration loading and management.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	DefaultImageModel string    `yaml:"default_image_model,omitempty"`
	DefaultTextModel  string    `yaml:"default_text_model,omitempty"`
	DefaultVoice      string    `yaml:"default_voice,omitempty"`
	TokenRef          string    `yaml:"token_ref,omitempty"`
	AdvisoryPayment   *bool     `yaml:"advisory_payment,omitempty"`
	Endpoints         Endpoints `yaml:"endpoints,omitempty"`
}

// Endpoints holds per-service base URL overrides.
type Endpoints struct {
	Image string `yaml:"image,omitempty"`
	Text  string `yaml:"text,omitempty"`
	Audio string `yaml:"audio,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.bloom/config.yaml
// - Windows: %USERPROFILE%\.bloom\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".bloom", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified path, creating the
// directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
