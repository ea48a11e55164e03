// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults, got error: %v", err)
	}
	if cfg.Ollama.URL != Default().Ollama.URL {
		t.Errorf("URL = %q, want default", cfg.Ollama.URL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[ollama]
url = "http://127.0.0.1:11434"
default_model = "llama3:8b"
timeout_seconds = 10
auto_start = false

[history]
window_size = 8

[models]
disallowed = ["embed-v1", "clip-vision"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Ollama.DefaultModel != "llama3:8b" {
		t.Errorf("DefaultModel = %q", cfg.Ollama.DefaultModel)
	}
	if cfg.History.WindowSize != 8 {
		t.Errorf("WindowSize = %d, want 8", cfg.History.WindowSize)
	}
	if !cfg.IsDisallowed("embed-v1") || cfg.IsDisallowed("llama3:8b") {
		t.Error("disallow-list not applied")
	}
	// Theme was not set in the file; defaults must survive a partial file.
	if cfg.UI.Theme != "auto" {
		t.Errorf("Theme = %q, want default auto", cfg.UI.Theme)
	}
}

func TestLoadFromMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ollama\nbroken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("malformed config must error, not silently default")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "10.0.0.5:11434")
	t.Setenv("OLLACHAT_MODEL", "qwen2:7b")
	t.Setenv("OLLACHAT_WINDOW", "4")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ollama.URL != "http://10.0.0.5:11434" {
		t.Errorf("URL = %q, want scheme-normalized host", cfg.Ollama.URL)
	}
	if cfg.Ollama.DefaultModel != "qwen2:7b" {
		t.Errorf("DefaultModel = %q", cfg.Ollama.DefaultModel)
	}
	if cfg.History.WindowSize != 4 {
		t.Errorf("WindowSize = %d, want 4", cfg.History.WindowSize)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.Ollama.URL = "" }},
		{"zero timeout", func(c *Config) { c.Ollama.TimeoutSeconds = 0 }},
		{"negative window", func(c *Config) { c.History.WindowSize = -1 }},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Ollama.DefaultModel = "llama3:8b"
	cfg.Models.Disallowed = []string{"embed-v1"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config perms = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Ollama.DefaultModel != "llama3:8b" {
		t.Errorf("DefaultModel = %q after round trip", loaded.Ollama.DefaultModel)
	}
	if !loaded.IsDisallowed("embed-v1") {
		t.Error("disallow-list lost in round trip")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := Default().SaveTo(path); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got *Config
	w, err := NewWatcher(path, func(cfg *Config) {
		mu.Lock()
		got = cfg
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	updated := Default()
	updated.Models.Disallowed = []string{"embed-v1"}
	if err := updated.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		ok := got != nil && got.IsDisallowed("embed-v1")
		mu.Unlock()
		if ok {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("watcher did not deliver the updated config in time")
}
