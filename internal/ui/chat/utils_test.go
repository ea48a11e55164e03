// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
	"time"
)

func TestWrapTextPreservesNewlines(t *testing.T) {
	in := "line one\nline two"
	if got := wrapText(in, 40); got != in {
		t.Errorf("short lines must pass through, got %q", got)
	}
}

func TestWrapTextWrapsLongLines(t *testing.T) {
	in := strings.Repeat("word ", 20)
	got := wrapText(in, 25)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 25 {
			t.Errorf("line too long: %q", line)
		}
	}
	if strings.Join(strings.Fields(got), " ") != strings.TrimSpace(in) {
		t.Error("wrapping lost or reordered words")
	}
}

func TestWrapTextZeroWidth(t *testing.T) {
	if got := wrapText("abc", 0); got != "abc" {
		t.Errorf("zero width must pass through, got %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Now()
	if got := formatTimestamp(now); got != now.Format("15:04") {
		t.Errorf("today = %q, want clock time", got)
	}

	old := now.AddDate(0, -3, 0)
	if got := formatTimestamp(old); got != old.Format("Jan 2") {
		t.Errorf("old = %q, want date", got)
	}
}

func TestRenderMarkdownFallsBackOnTinyWidth(t *testing.T) {
	// Must not panic or return empty for degenerate widths.
	out := renderMarkdown("**bold**", 1)
	if out == "" {
		t.Error("renderMarkdown returned empty output")
	}
}
