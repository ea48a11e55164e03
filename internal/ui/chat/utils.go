// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
)

// =============================================================================
// CLIPBOARD
// =============================================================================

// copyToClipboard copies text to the system clipboard. Best effort;
// headless hosts have no clipboard and that is a warning, not a crash.
func copyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	return nil
}

// =============================================================================
// MARKDOWN
// =============================================================================

var (
	rendererMu    sync.Mutex
	renderer      *glamour.TermRenderer
	rendererWidth int
)

// renderMarkdown formats assistant markdown for the transcript,
// falling back to wrapped plain text when rendering fails. The
// renderer is cached and rebuilt when the wrap width changes.
func renderMarkdown(content string, width int) string {
	if width < 10 {
		width = 10
	}

	rendererMu.Lock()
	if renderer == nil || rendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			rendererMu.Unlock()
			return wrapText(content, width)
		}
		renderer = r
		rendererWidth = width
	}
	r := renderer
	rendererMu.Unlock()

	out, err := r.Render(content)
	if err != nil {
		return wrapText(content, width)
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// TEXT HELPERS
// =============================================================================

// wrapText wraps text at word boundaries to the given display width,
// preserving existing newlines. Width is measured in terminal columns
// so CJK text wraps correctly.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteString("\n")
		}
		if runewidth.StringWidth(line) <= maxWidth {
			result.WriteString(line)
			continue
		}

		lineWidth := 0
		for j, word := range strings.Fields(line) {
			wordWidth := runewidth.StringWidth(word)
			if j > 0 && lineWidth+1+wordWidth > maxWidth {
				result.WriteString("\n")
				lineWidth = 0
			} else if j > 0 {
				result.WriteString(" ")
				lineWidth++
			}
			result.WriteString(word)
			lineWidth += wordWidth
		}
	}
	return result.String()
}

// formatTimestamp renders a message time compactly: clock time today,
// weekday within a week, date otherwise.
func formatTimestamp(t time.Time) string {
	now := time.Now()
	switch {
	case t.Year() == now.Year() && t.YearDay() == now.YearDay():
		return t.Format("15:04")
	case now.Sub(t) < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	default:
		return t.Format("Jan 2")
	}
}
