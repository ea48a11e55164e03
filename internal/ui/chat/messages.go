// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ollachat/ollachat/internal/config"
	"github.com/ollachat/ollachat/internal/turn"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================
// All cross-goroutine communication flows through these tea messages.
// Stream messages arrive via the program reference in program.go.

// ModelsLoadedMsg carries the filtered model list, or the reason it
// could not be fetched.
type ModelsLoadedMsg struct {
	Names []string
	Err   error
}

// StreamChunkMsg carries one chunk of assistant text.
type StreamChunkMsg struct {
	Content string
}

// StreamDoneMsg signals the turn finished, cleanly or not.
type StreamDoneMsg struct {
	Result *turn.Result
	Err    error
}

// StreamTickMsg drives batched flushes of buffered chunks into the
// viewport while streaming.
type StreamTickMsg struct{}

// CopyDoneMsg reports the outcome of a copy-to-clipboard action.
type CopyDoneMsg struct {
	Err error
}

// SpeakDoneMsg reports the outcome of starting the speech engine.
type SpeakDoneMsg struct {
	Err error
}

// ConfigReloadedMsg carries a freshly loaded config after the file
// changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// StatusMsg shows a transient notice in the status bar.
type StatusMsg struct {
	Text    string
	IsError bool
}

// ClearStatusMsg hides the current status notice.
type ClearStatusMsg struct{}

// statusCmd wraps a notice as a command.
func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Text: text, IsError: isError}
	}
}
