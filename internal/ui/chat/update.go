// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ollachat/ollachat/internal/model"
	"github.com/ollachat/ollachat/internal/ollama"
	"github.com/ollachat/ollachat/internal/registry"
	"github.com/ollachat/ollachat/internal/turn"
)

// statusClearAfter is how long transient notices stay visible.
const statusClearAfter = 4 * time.Second

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ModelsLoadedMsg:
		return m.handleModelsLoaded(msg)

	case StreamChunkMsg:
		// Chunks just land in the buffer; the tick drains it.
		m.buffer.Write(msg.Content)
		return m, nil

	case StreamTickMsg:
		return m.handleStreamTick()

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case CopyDoneMsg:
		if msg.Err != nil {
			return m, statusCmd("clipboard unavailable: "+msg.Err.Error(), true)
		}
		return m, statusCmd("copied to clipboard", false)

	case SpeakDoneMsg:
		if msg.Err != nil {
			return m, statusCmd("speech failed: "+msg.Err.Error(), true)
		}
		return m, nil

	case ConfigReloadedMsg:
		// Live config edits update the disallow-list and the selector.
		m.cfg = msg.Config
		m.registry.SetDisallowed(msg.Config.Models.Disallowed)
		return m, m.loadModelsCmd()

	case StatusMsg:
		m.status = msg.Text
		m.statusIsError = msg.IsError
		return m, tea.Tick(statusClearAfter, func(time.Time) tea.Msg {
			return ClearStatusMsg{}
		})

	case ClearStatusMsg:
		m.status = ""
		m.statusIsError = false
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// =============================================================================
// HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	viewportHeight := msg.Height - chromeHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.ready = true
		m.rebuildTranscript()
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = msg.Width - 4
	m.refreshViewport()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The picker overlay swallows all keys while open.
	if m.picker != nil {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelMgr.fire()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.naming {
			m.naming = false
			m.input.Placeholder = "Type a message..."
			m.input.SetValue("")
			return m, nil
		}
		if m.state == StateStreaming {
			m.cancelMgr.fire()
			return m, statusCmd("stopping...", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.CycleModel):
		if len(m.modelNames) > 1 {
			m.modelIdx = (m.modelIdx + 1) % len(m.modelNames)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyLast):
		if text := m.lastAssistantTextSafe(); text != "" {
			return m, copyTextCmd(text)
		}
		return m, statusCmd("nothing to copy", false)

	case key.Matches(msg, m.keys.SpeakLast):
		if !m.cfg.Speech.Enabled {
			return m, statusCmd("speech is disabled in config", false)
		}
		if text := m.lastAssistantTextSafe(); text != "" {
			return m, m.speakTextCmd(text)
		}
		return m, statusCmd("nothing to speak", false)

	case key.Matches(msg, m.keys.NewSession):
		if m.state == StateStreaming {
			return m, statusCmd("wait for the response to finish", false)
		}
		m.naming = true
		m.input.Placeholder = "New session name..."
		m.input.SetValue("")
		return m, nil

	case key.Matches(msg, m.keys.Sessions):
		if m.state == StateStreaming {
			return m, statusCmd("wait for the response to finish", false)
		}
		m.picker = newSessionPicker(m.store.List())
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		if m.ready {
			m.viewport, cmd = m.viewport.Update(msg)
		}
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if m.naming {
		return m.handleNameSubmit(text)
	}

	// Input gate: no new turns while one is streaming.
	if m.state == StateStreaming || m.controller.Busy() {
		return m, statusCmd("a response is already streaming", true)
	}
	if m.CurrentModel() == "" {
		return m, statusCmd("no model available; is ollama running?", true)
	}

	m.input.SetValue("")
	m.input.Blur()
	m.state = StateStreaming
	m.buffer.Reset()
	m.pendingUser = text
	m.streamText = ""
	m.stats = ""
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.startTurnCmd(text), m.spinner.Tick, streamTickCmd())
}

func (m Model) handleNameSubmit(name string) (tea.Model, tea.Cmd) {
	m.naming = false
	m.input.Placeholder = "Type a message..."
	m.input.SetValue("")

	sess := model.NewSession(name, m.CurrentModel())
	if err := m.store.Create(sess); err != nil {
		return m, statusCmd("cannot create session: "+err.Error(), true)
	}
	m.session = sess
	m.rebuildTranscript()
	m.refreshViewport()
	return m, statusCmd("session "+name+" created", false)
}

func (m Model) handleModelsLoaded(msg ModelsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.modelNames = nil
		m.modelIdx = 0
		if errors.Is(msg.Err, registry.ErrBackendUnavailable) {
			return m, statusCmd("ollama unreachable; model selector disabled", true)
		}
		return m, statusCmd(msg.Err.Error(), true)
	}

	m.modelNames = msg.Names
	if m.modelIdx >= len(m.modelNames) {
		m.modelIdx = 0
	}
	// Prefer the configured default when it survived filtering.
	if def := m.cfg.Ollama.DefaultModel; def != "" {
		for i, n := range m.modelNames {
			if n == def {
				m.modelIdx = i
				break
			}
		}
	}
	if len(m.modelNames) == 0 {
		return m, statusCmd("no selectable models installed", true)
	}
	return m, nil
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		return m, nil
	}
	if chunk := m.buffer.Flush(); chunk != "" {
		m.streamText += chunk
		m.refreshViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	// Drain whatever the last frame missed.
	m.buffer.Flush()
	m.state = StateReady
	m.cancelMgr.clear()
	m.pendingUser = ""
	m.streamText = ""
	m.input.Focus()

	// The controller is idle again, so the session is safe to read.
	m.rebuildTranscript()
	m.refreshViewport()
	m.viewport.GotoBottom()

	var cmds []tea.Cmd
	cmds = append(cmds, textinput.Blink)

	if msg.Result != nil && msg.Result.Stats != nil && m.cfg.UI.ShowStats {
		m.stats = msg.Result.Stats.Format()
	}

	if msg.Err != nil {
		switch {
		case errors.Is(msg.Err, turn.ErrStreamInterrupted):
			cmds = append(cmds, statusCmd("response interrupted; partial answer kept", true))
		case ollama.IsNotRunning(msg.Err):
			cmds = append(cmds, statusCmd("ollama is not running", true))
		default:
			cmds = append(cmds, statusCmd(msg.Err.Error(), true))
		}
	}
	return m, tea.Batch(cmds...)
}

// lastAssistantTextSafe is lastAssistantText gated to the idle state,
// when the session is not being mutated by a stream goroutine.
func (m Model) lastAssistantTextSafe() string {
	if m.state == StateStreaming {
		return m.streamText
	}
	return m.lastAssistantText()
}

func formatModelLabel(names []string, idx int) string {
	if len(names) == 0 {
		return "no model"
	}
	return fmt.Sprintf("%s (%d/%d)", names[idx], idx+1, len(names))
}
