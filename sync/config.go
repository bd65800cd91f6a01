// ABOUTME: Backend configuration and credential management
// ABOUTME: Handles config storage at XDG paths and environment variable overrides
package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Config stores backend credentials and synchronization settings.
type Config struct {
	Server   string `json:"server"`
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
	AutoSync bool   `json:"auto_sync"`
}

// IsConfigured reports whether the config can reach a backend.
func (c *Config) IsConfigured() bool {
	return c.Server != "" && c.UserID != ""
}

// ConfigDir returns the XDG-compliant directory for focusden data.
func ConfigDir() string {
	return filepath.Join(xdg.DataHome, "focusden")
}

// ConfigPath returns the XDG-compliant path for the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DatabasePath returns the default SQLite database path.
func DatabasePath() string {
	return filepath.Join(ConfigDir(), "focusden.db")
}

// StateDir returns the default directory for the badger state store.
func StateDir() string {
	return filepath.Join(ConfigDir(), "state")
}

// LoadConfig loads configuration from the XDG data directory. Returns a
// default config if the file does not exist. Environment variables override
// file values:
// - FOCUSDEN_SERVER
// - FOCUSDEN_TOKEN
// - FOCUSDEN_USER_ID
// - FOCUSDEN_AUTO_SYNC.
func LoadConfig() (*Config, error) {
	path := ConfigPath()

	cfg := &Config{AutoSync: true}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// SaveConfig writes configuration to the XDG data directory.
func SaveConfig(cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if server := os.Getenv("FOCUSDEN_SERVER"); server != "" {
		cfg.Server = server
	}
	if token := os.Getenv("FOCUSDEN_TOKEN"); token != "" {
		cfg.Token = token
	}
	if userID := os.Getenv("FOCUSDEN_USER_ID"); userID != "" {
		cfg.UserID = userID
	}
	if autoSync := os.Getenv("FOCUSDEN_AUTO_SYNC"); autoSync != "" {
		cfg.AutoSync = autoSync == "true" || autoSync == "1"
	}
}
