package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Polling  PollingConfig  `toml:"polling"`
	Upload   UploadConfig   `toml:"upload"`
}

// ServerConfig contains backend API connection settings.
type ServerConfig struct {
	BaseURL               string `toml:"base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// DatabaseConfig contains local database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// PollingConfig contains job polling settings.
type PollingConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// UploadConfig contains client-side upload limits.
type UploadConfig struct {
	MaxSizeMB int64 `toml:"max_size_mb"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A .env file in the working directory and VIDX_* environment variables
// override the file values, so CI and scripts can point the client at a
// different backend without editing the config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&config)
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	applyEnvOverrides(&config)
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvOverrides loads a .env file if present and applies VIDX_* overrides.
func applyEnvOverrides(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("VIDX_SERVER_URL"); v != "" {
		config.Server.BaseURL = v
	}
	if v := os.Getenv("VIDX_DATABASE_PATH"); v != "" {
		config.Database.Path = v
	}
}
