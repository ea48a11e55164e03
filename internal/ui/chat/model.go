// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ollachat/ollachat/internal/config"
	"github.com/ollachat/ollachat/internal/history"
	"github.com/ollachat/ollachat/internal/model"
	"github.com/ollachat/ollachat/internal/registry"
	"github.com/ollachat/ollachat/internal/speech"
	"github.com/ollachat/ollachat/internal/turn"
	"github.com/ollachat/ollachat/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// State is the input gate. Submissions are only accepted in StateReady;
// while a response streams the input is disabled, so typed-ahead text
// stays in the box but cannot enter the transcript out of order.
type State int

const (
	StateReady State = iota
	StateStreaming
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	cfg        *config.Config
	registry   *registry.Registry
	store      *history.Store
	controller *turn.Controller
	speaker    *speech.Speaker

	session    *model.Session
	modelNames []string
	modelIdx   int

	state     State
	buffer    *StreamingBuffer
	cancelMgr *cancelManager

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keys     KeyMap
	theme    *styles.Theme

	width  int
	height int
	ready  bool

	status        string
	statusIsError bool

	// naming repurposes the input box to read a new session name.
	naming bool

	// picker is the session overlay; nil while closed.
	picker *sessionPicker

	// The transcript is rendered from these caches, never from the
	// live session while a stream goroutine is appending to it.
	// transcript holds the rendered finalized messages; pendingUser
	// and streamText hold the in-flight turn.
	transcript  string
	pendingUser string
	streamText  string

	stats string
}

// New assembles the chat view around an active session.
func New(cfg *config.Config, reg *registry.Registry, store *history.Store, controller *turn.Controller, speaker *speech.Speaker, sess *model.Session) Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 0
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	theme := styles.NewTheme(cfg.UI.Theme)
	sp.Style = theme.Spinner

	return Model{
		cfg:        cfg,
		registry:   reg,
		store:      store,
		controller: controller,
		speaker:    speaker,
		session:    sess,
		buffer:     NewStreamingBuffer(),
		cancelMgr:  newCancelManager(),
		input:      input,
		spinner:    sp,
		keys:       DefaultKeyMap(),
		theme:      theme,
	}
}

// Session returns the active session, for saving on exit.
func (m Model) Session() *model.Session {
	return m.session
}

// Init starts the model list fetch and the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadModelsCmd())
}

// CurrentModel returns the selected model name, or empty when the
// backend reported none.
func (m Model) CurrentModel() string {
	if len(m.modelNames) == 0 {
		return ""
	}
	return m.modelNames[m.modelIdx]
}

// =============================================================================
// COMMANDS
// =============================================================================

// loadModelsCmd fetches the filtered model list.
func (m Model) loadModelsCmd() tea.Cmd {
	reg := m.registry
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		names, err := reg.Names(ctx)
		return ModelsLoadedMsg{Names: names, Err: err}
	}
}

// startTurnCmd launches one turn. Chunks reach the program through
// sendToProgram; the command itself resolves to StreamDoneMsg.
func (m Model) startTurnCmd(input string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	controller := m.controller
	sess := m.session
	modelName := m.CurrentModel()

	return func() tea.Msg {
		result, err := controller.Run(ctx, sess, modelName, input, func(chunk string) {
			sendToProgram(StreamChunkMsg{Content: chunk})
		})
		cancel()
		return StreamDoneMsg{Result: result, Err: err}
	}
}

// copyTextCmd copies text to the system clipboard.
func copyTextCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return CopyDoneMsg{Err: copyToClipboard(text)}
	}
}

// speakTextCmd starts the speech engine on the given text.
func (m Model) speakTextCmd(text string) tea.Cmd {
	speaker := m.speaker
	return func() tea.Msg {
		return SpeakDoneMsg{Err: speaker.Speak(text)}
	}
}

// lastAssistantText returns the newest assistant message's content.
func (m Model) lastAssistantText() string {
	for i := len(m.session.Messages) - 1; i >= 0; i-- {
		msg := m.session.Messages[i]
		if msg.Role == model.RoleAssistant {
			return msg.DisplayContent()
		}
	}
	return ""
}
