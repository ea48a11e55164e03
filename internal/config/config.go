// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ollachat/ollachat/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the full application configuration, stored as TOML at
// ~/.ollachat/config.toml.
type Config struct {
	Ollama  OllamaConfig  `toml:"ollama"`
	History HistoryConfig `toml:"history"`
	Models  ModelsConfig  `toml:"models"`
	UI      UIConfig      `toml:"ui"`
	Speech  SpeechConfig  `toml:"speech"`
}

// OllamaConfig configures the backend connection.
type OllamaConfig struct {
	// URL of the Ollama server.
	URL string `toml:"url"`
	// DefaultModel used when the user has not picked one.
	DefaultModel string `toml:"default_model"`
	// TimeoutSeconds for non-streaming requests.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// AutoStart launches a local server when none is running.
	AutoStart bool `toml:"auto_start"`
}

// HistoryConfig configures transcript persistence.
type HistoryConfig struct {
	// Path of the JSON history file. Empty means <config dir>/chats.json.
	Path string `toml:"path"`
	// WindowSize caps how many messages of a session are sent to the
	// backend per turn. Oldest messages are dropped first; the system
	// message is always kept. 0 disables the cap.
	WindowSize int `toml:"window_size"`
}

// ModelsConfig configures the model selector.
type ModelsConfig struct {
	// Disallowed model names are hidden from selection. Exact match
	// on the full name as the backend reports it.
	Disallowed []string `toml:"disallowed"`
}

// UIConfig configures presentation.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme"`
	// RenderMarkdown formats assistant messages with glamour.
	RenderMarkdown bool `toml:"render_markdown"`
	// ShowStats prints token counts and timing after each response.
	ShowStats bool `toml:"show_stats"`
}

// SpeechConfig configures the speak-aloud action.
type SpeechConfig struct {
	// Enabled toggles the speak action.
	Enabled bool `toml:"enabled"`
	// Engine overrides the auto-detected TTS command.
	Engine string `toml:"engine"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:            "http://127.0.0.1:11434",
			TimeoutSeconds: 30,
			AutoStart:      true,
		},
		History: HistoryConfig{
			WindowSize: 20,
		},
		UI: UIConfig{
			Theme:          "auto",
			RenderMarkdown: true,
			ShowStats:      true,
		},
		Speech: SpeechConfig{
			Enabled: true,
		},
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSeconds) * time.Second
}

// HistoryPath returns the resolved history file location.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(Dir(), "chats.json")
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the application directory, ~/.ollachat. Falls back to
// the working directory when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ollachat"
	}
	return filepath.Join(home, ".ollachat")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// EnsureDir creates the application directory if needed.
func EnsureDir() error {
	return os.MkdirAll(Dir(), 0700)
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file, applies environment overrides and
// validates. A missing file yields defaults, not an error.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		ensureSecurePermissions(path)
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as TOML with owner-only permissions.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo is Save with an explicit file path.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// ensureSecurePermissions tightens world-readable config files. The
// file may hold nothing secret today, but the directory also stores
// chat history, so keep the habit uniform.
func ensureSecurePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.Mode().Perm()&0077 != 0 {
		os.Chmod(path, 0600)
	}
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

// applyEnvOverrides lets the environment win over the file, matching
// how the ollama CLI itself honors OLLAMA_HOST.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Ollama.URL = normalizeHost(v)
	}
	if v := os.Getenv("OLLACHAT_MODEL"); v != "" {
		c.Ollama.DefaultModel = v
	}
	if v := os.Getenv("OLLACHAT_HISTORY"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("OLLACHAT_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.History.WindowSize = n
		}
	}
}

// normalizeHost adds a scheme when OLLAMA_HOST is a bare host:port.
func normalizeHost(host string) string {
	if len(host) >= 7 && (host[:7] == "http://" || (len(host) >= 8 && host[:8] == "https://")) {
		return host
	}
	return "http://" + host
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate rejects values that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.Ollama.URL == "" {
		return fmt.Errorf("ollama.url must not be empty")
	}
	if c.Ollama.TimeoutSeconds <= 0 {
		return fmt.Errorf("ollama.timeout_seconds must be positive, got %d", c.Ollama.TimeoutSeconds)
	}
	if c.History.WindowSize < 0 {
		return fmt.Errorf("history.window_size must not be negative, got %d", c.History.WindowSize)
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be auto, dark or light, got %q", c.UI.Theme)
	}
	return nil
}

// IsDisallowed reports whether a model name is on the disallow-list.
func (c *Config) IsDisallowed(name string) bool {
	for _, d := range c.Models.Disallowed {
		if d == name {
			return true
		}
	}
	return false
}
