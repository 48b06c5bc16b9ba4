// Package config loads cubvault settings from config.toml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/cubsoftware/cubvault/internal/remote"
	"github.com/cubsoftware/cubvault/internal/storage"
)

// FileName is the config file inside the data directory
const FileName = "config.toml"

// DirName is the default data directory under $HOME
const DirName = ".cubvault"

// Environment overrides
const (
	EnvAPIBaseURL = "API_BASE_URL"
	EnvDataDir    = "CUBVAULT_DATA_DIR"
	EnvStorage    = "CUBVAULT_STORAGE"
	EnvLogLevel   = "CUBVAULT_LOG_LEVEL"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the client configuration. Vault settings such as the auto-lock
// timeout live inside the encrypted vault, not here.
type Config struct {
	DataDir    string `toml:"-"`
	Storage    string `toml:"storage"`
	APIBaseURL string `toml:"api_base_url"`
	LogLevel   string `toml:"log_level"`
	LogJSON    bool   `toml:"log_json,omitempty"`
	Email      string `toml:"email,omitempty"`
}

// Default returns the defaults for a data directory
func Default(dataDir string) *Config {
	return &Config{
		DataDir:    dataDir,
		Storage:    string(storage.KindBolt),
		APIBaseURL: remote.DefaultBaseURL,
		LogLevel:   "warn",
	}
}

// DefaultDataDir returns $CUBVAULT_DATA_DIR or ~/.cubvault
func DefaultDataDir() (string, error) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Path returns the config file path for the configured data directory
func (c *Config) Path() string {
	return filepath.Join(c.DataDir, FileName)
}

// Load reads dataDir/config.toml over the defaults and then applies the
// environment. A missing file is not an error.
func Load(dataDir string) (*Config, error) {
	cfg := Default(dataDir)

	if _, err := toml.DecodeFile(cfg.Path(), cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", cfg.Path(), err)
	}

	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIBaseURL); ok && v != "" {
		c.APIBaseURL = v
	}
	if v, ok := lookup(EnvStorage); ok && v != "" {
		c.Storage = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// Validate checks the storage kind and API URL
func (c *Config) Validate() error {
	switch storage.Kind(c.Storage) {
	case storage.KindBolt, storage.KindSQLite, storage.KindFile, storage.KindMemory:
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalidConfig, c.Storage)
	}

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api_base_url must be an http(s) URL, got %q", ErrInvalidConfig, c.APIBaseURL)
	}
	return nil
}

// Save writes the config to its data directory
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(c.Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}
