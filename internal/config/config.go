// Package config provides centralized configuration for the Orbit wallet daemon.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// NetworkType represents the network (mainnet or testnet).
type NetworkType string

const (
	NetworkMainnet NetworkType = "mainnet"
	NetworkTestnet NetworkType = "testnet"
)

// Base currency constants. The base token is always assumed present and is
// never queried for metadata.
const (
	BaseTokenID       = "00"
	BaseTokenSymbol   = "ORB"
	BaseTokenName     = "Orbit"
	BaseTokenDecimals = 2
)

// Hardcoded wallet-service endpoints used when no URL is persisted in the
// config file.
const (
	MainnetServiceBaseURL = "https://wallet-service.orbit-wallet.io/"
	MainnetServiceWSURL   = "wss://ws.wallet-service.orbit-wallet.io/"
	TestnetServiceBaseURL = "https://wallet-service.testnet.orbit-wallet.io/"
	TestnetServiceWSURL   = "wss://ws.wallet-service.testnet.orbit-wallet.io/"
)

// Config holds all configuration for the daemon.
type Config struct {
	// NetworkType is the network type (mainnet or testnet).
	NetworkType NetworkType `yaml:"network_type"`

	// Network holds network identification settings.
	Network NetworkConfig `yaml:"network"`

	// WalletService holds RemoteService backend endpoints.
	// Empty values fall back to the hardcoded defaults.
	WalletService WalletServiceConfig `yaml:"wallet_service,omitempty"`

	// Storage holds local storage settings.
	Storage StorageConfig `yaml:"storage"`

	// API holds the status API settings.
	API APIConfig `yaml:"api"`

	// Logging holds logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// NetworkConfig holds network identification settings.
type NetworkConfig struct {
	// Name is the locally configured network name, used when the backend
	// does not report one.
	Name string `yaml:"name"`
}

// WalletServiceConfig holds RemoteService backend endpoints.
type WalletServiceConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	WSURL   string `yaml:"ws_url,omitempty"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	// DataDir is the directory for all data files.
	DataDir string `yaml:"data_dir"`
}

// APIConfig holds the status API settings.
type APIConfig struct {
	// Addr is the listen address for the status/WebSocket API.
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level"`
}

// IsTestnet returns true if running on testnet.
func (c *Config) IsTestnet() bool {
	return c.NetworkType == NetworkTestnet
}

// NetworkName returns the configured network name, defaulting to the
// network type when unset.
func (c *Config) NetworkName() string {
	if c.Network.Name != "" {
		return c.Network.Name
	}
	return string(c.NetworkType)
}

// ServiceBaseURL returns the wallet-service base URL, preferring the
// persisted value over the hardcoded default.
func (c *Config) ServiceBaseURL() string {
	if c.WalletService.BaseURL != "" {
		return c.WalletService.BaseURL
	}
	if c.IsTestnet() {
		return TestnetServiceBaseURL
	}
	return MainnetServiceBaseURL
}

// ServiceWSURL returns the wallet-service WebSocket URL, preferring the
// persisted value over the hardcoded default.
func (c *Config) ServiceWSURL() string {
	if c.WalletService.WSURL != "" {
		return c.WalletService.WSURL
	}
	if c.IsTestnet() {
		return TestnetServiceWSURL
	}
	return MainnetServiceWSURL
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		NetworkType: NetworkMainnet,
		Network: NetworkConfig{
			Name: "mainnet",
		},
		Storage: StorageConfig{
			DataDir: "~/.orbit",
		},
		API: APIConfig{
			Addr: "127.0.0.1:8091",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigFileName is the default config file name.
const ConfigFileName = "config.yaml"

// LoadConfig loads configuration from a YAML file in dataDir.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(dataDir string) (*Config, error) {
	expandedDir := ExpandPath(dataDir)
	configPath := filepath.Join(expandedDir, ConfigFileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.Storage.DataDir = dataDir

		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Orbit wallet daemon configuration\n# Generated automatically on first run\n\n")
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigPath returns the full path to the config file for the given data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(ExpandPath(dataDir), ConfigFileName)
}

// ExpandPath expands ~ to the home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
