// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// chat client.
//
// Configuration is TOML with sensible defaults and environment variable
// overrides. File location: ~/.dify-tui/config.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/dify-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete client configuration.
type Config struct {
	// API configuration
	API APIConfig `toml:"api"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Demo runs the client against a built-in local backend instead of
	// the API. Useful for development without credentials.
	Demo bool `toml:"demo"`

	// StatePath is the path of the client state database
	// (empty = ~/.dify-tui/state.db)
	StatePath string `toml:"state_path"`
}

// APIConfig contains app API connection settings.
type APIConfig struct {
	// BaseURL of the app API
	BaseURL string `toml:"base_url"`
	// Key is the app API key sent as a bearer token
	Key string `toml:"key"`
	// AppID scopes persisted client state; conversations from different
	// apps never mix
	AppID string `toml:"app_id"`
	// User identifies the end user to the API
	User string `toml:"user"`
	// TimeoutSecs for non-streaming requests
	TimeoutSecs int `toml:"timeout_secs"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light", or "auto"
	Theme string `toml:"theme"`
	// WrapWidth caps markdown rendering width (0 = terminal width)
	WrapWidth int `toml:"wrap_width"`
	// ShowThoughts expands agent thought segments by default
	ShowThoughts bool `toml:"show_thoughts"`
	// ShowWorkflow expands workflow traces by default
	ShowWorkflow bool `toml:"show_workflow"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "https://api.dify.ai/v1",
			User:        "tui-user",
			TimeoutSecs: 30,
		},
		UI: UIConfig{
			Theme:        "auto",
			WrapWidth:    100,
			ShowThoughts: false,
			ShowWorkflow: false,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the configuration directory (~/.dify-tui).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".dify-tui"), nil
}

// ConfigPath returns the TOML config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultStatePath returns the default state database path.
func DefaultStatePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// ErrUnavailable marks a configuration that cannot reach an API: no key
// configured and demo mode off. The UI shows a setup screen instead of
// the chat.
var ErrUnavailable = errors.New("configuration unavailable: set api.key or enable demo mode")

// Load reads the config file if present, applies environment overrides,
// fills defaults, and validates. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variables over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DIFY_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("DIFY_API_KEY"); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv("DIFY_APP_ID"); v != "" {
		c.API.AppID = v
	}
	if v := os.Getenv("DIFY_USER"); v != "" {
		c.API.User = v
	}
	if v := os.Getenv("DIFY_DEMO"); v == "1" || strings.EqualFold(v, "true") {
		c.Demo = true
	}
}

// SetDefaults fills zero values after decode and overrides.
func (c *Config) SetDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.dify.ai/v1"
	}
	if c.API.User == "" {
		c.API.User = "tui-user"
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = 30
	}
	if c.API.AppID == "" {
		// State scoping falls back to the API key host when no app id
		// is configured.
		if u, err := url.Parse(c.API.BaseURL); err == nil && u.Host != "" {
			c.API.AppID = u.Host
		} else {
			c.API.AppID = "default"
		}
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "auto"
	}
	if c.StatePath == "" {
		if p, err := DefaultStatePath(); err == nil {
			c.StatePath = p
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http or https", c.API.BaseURL),
		})
	}

	if c.API.TimeoutSecs < 0 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: "must be between 0 and 600",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.WrapWidth < 0 || c.UI.WrapWidth > 500 {
		errs = append(errs, ValidationError{
			Field:   "ui.wrap_width",
			Message: "must be between 0 and 500",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CheckUsable reports whether the configuration can serve a session.
func (c *Config) CheckUsable() error {
	if c.Demo {
		return nil
	}
	if c.API.Key == "" {
		return ErrUnavailable
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path atomically.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to an explicit path atomically.
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// 0600: the file holds the API key.
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
