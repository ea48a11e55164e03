// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the color palette and lipgloss styles for the
// terminal UI.
package styles
