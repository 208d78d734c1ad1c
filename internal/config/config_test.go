// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.API.BaseURL != "https://api.dify.ai/v1" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSecs != 30 {
		t.Errorf("timeout = %d", cfg.API.TimeoutSecs)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
demo = false

[api]
base_url = "https://example.test/v1"
key = "sk-test"
app_id = "myapp"

[ui]
theme = "dark"
wrap_width = 80
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.API.BaseURL != "https://example.test/v1" || cfg.API.Key != "sk-test" {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.API.AppID != "myapp" {
		t.Errorf("app id = %q", cfg.API.AppID)
	}
	if cfg.UI.Theme != "dark" || cfg.UI.WrapWidth != 80 {
		t.Errorf("ui = %+v", cfg.UI)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DIFY_API_URL", "https://override.test/v1")
	t.Setenv("DIFY_API_KEY", "sk-env")
	t.Setenv("DIFY_DEMO", "true")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.API.BaseURL != "https://override.test/v1" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Key != "sk-env" {
		t.Errorf("key = %q", cfg.API.Key)
	}
	if !cfg.Demo {
		t.Error("demo override not applied")
	}
}

func TestAppIDFallsBackToHost(t *testing.T) {
	t.Setenv("DIFY_API_URL", "https://cloud.example.com/v1")
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.API.AppID != "cloud.example.com" {
		t.Errorf("app id = %q", cfg.API.AppID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url", func(c *Config) { c.API.BaseURL = "not a url" }, "api.base_url"},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://x" }, "api.base_url"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"bad timeout", func(c *Config) { c.API.TimeoutSecs = 9999 }, "api.timeout_secs"},
		{"bad width", func(c *Config) { c.UI.WrapWidth = -1 }, "ui.wrap_width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var errs ValidateErrors
			if !errors.As(err, &errs) || errs[0].Field != tt.field {
				t.Errorf("err = %v", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults must validate, got %v", err)
	}
}

func TestCheckUsable(t *testing.T) {
	cfg := Default()
	if err := cfg.CheckUsable(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("no key err = %v", err)
	}

	cfg.Demo = true
	if err := cfg.CheckUsable(); err != nil {
		t.Errorf("demo err = %v", err)
	}

	cfg.Demo = false
	cfg.API.Key = "sk-test"
	if err := cfg.CheckUsable(); err != nil {
		t.Errorf("keyed err = %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.API.Key = "sk-save"
	cfg.UI.Theme = "light"

	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %o, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.API.Key != "sk-save" || loaded.UI.Theme != "light" {
		t.Errorf("loaded = %+v", loaded)
	}
}
