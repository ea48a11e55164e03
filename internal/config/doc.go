// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the TOML configuration under
// ~/.ollachat/, applies environment overrides (OLLAMA_HOST,
// OLLACHAT_*), validates values, and watches the file for live
// reloads of the model disallow-list.
package config
