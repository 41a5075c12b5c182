package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config stores the backend connection and identity for this machine.
type Config struct {
	Version        int    `json:"version"`
	BackendURL     string `json:"backend_url"`
	Token          string `json:"token,omitempty"`
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Region         string `json:"region,omitempty"`
	ImageBucket    string `json:"image_bucket,omitempty"`
	DocumentBucket string `json:"document_bucket,omitempty"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "parley", "config.json"), nil
}

// CachePath returns where the local snapshot cache lives.
func CachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "parley", "cache.db"), nil
}

// ReadConfig reads the config file if present. Environment variables
// PARLEY_BACKEND_URL and PARLEY_TOKEN override the file.
func ReadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	config := &Config{Version: 1}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if v := os.Getenv("PARLEY_BACKEND_URL"); v != "" {
		config.BackendURL = v
	}
	if v := os.Getenv("PARLEY_TOKEN"); v != "" {
		config.Token = v
	}
	return config, nil
}

// WriteConfig writes the config to disk, creating the directory if needed.
func WriteConfig(config Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if config.Version == 0 {
		config.Version = 1
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config carries enough to open a session.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url not configured (set PARLEY_BACKEND_URL or run parley init)")
	}
	if c.UserID == "" {
		return fmt.Errorf("user_id not configured")
	}
	if c.Email == "" {
		return fmt.Errorf("email not configured")
	}
	return nil
}
