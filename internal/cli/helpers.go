// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/ollachat/ollachat/internal/config"
	"github.com/ollachat/ollachat/internal/history"
	"github.com/ollachat/ollachat/internal/ollama"
	"github.com/ollachat/ollachat/internal/registry"
)

// loadConfigAndClient builds the pieces every command starts from.
func loadConfigAndClient() (*config.Config, *ollama.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	client := ollama.NewClientWithConfig(ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		Timeout:      cfg.Timeout(),
		DefaultModel: cfg.Ollama.DefaultModel,
	})
	return cfg, client, nil
}

// loadStore opens the history store, downgrading a corrupt file to a
// warning with an empty store.
func loadStore(cfg *config.Config) (*history.Store, error) {
	store := history.NewStore(cfg.HistoryPath())
	if err := store.Load(); err != nil {
		if errors.Is(err, history.ErrCorruptHistory) {
			fmt.Fprintln(os.Stderr, warnStyle.Render("! history file is corrupt; starting with empty history"))
			return store, nil
		}
		return nil, err
	}
	return store, nil
}

// newRegistry builds the filtered model registry.
func newRegistry(cfg *config.Config, client *ollama.Client) *registry.Registry {
	return registry.New(client, cfg.Models.Disallowed)
}

// fail prints an error and returns the exit code commands hand back to
// main.
func fail(err error) int {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✗ ")+err.Error())
	return 1
}
