// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ollachat/ollachat/internal/ui/styles"
)

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Emerald)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple)

	labelStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan)

	mutedStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Rose)

	warnStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)
)
