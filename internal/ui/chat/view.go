// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ollachat/ollachat/internal/model"
)

// chromeHeight is the screen space outside the viewport: header,
// input line and status bar. handleResize budgets with it; if a
// component grows a line, update it there too.
const chromeHeight = 4

// View renders the complete chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.picker != nil {
		return m.renderPicker()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// =============================================================================
// COMPONENTS
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.Header.Render("ollachat")
	sess := m.theme.Timestamp.Render("· " + m.session.ID)
	modelLabel := m.theme.HeaderModel.Render(formatModelLabel(m.modelNames, m.modelIdx))

	left := lipgloss.JoinHorizontal(lipgloss.Center, title, sess)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(modelLabel) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + modelLabel
}

func (m Model) renderInput() string {
	if m.state == StateStreaming {
		return fmt.Sprintf(" %s %s",
			m.spinner.View(),
			m.theme.Thinking.Render("thinking... press Esc to stop"))
	}
	return " " + m.theme.InputPrompt.Render(">") + " " + m.input.View()
}

func (m Model) renderStatusBar() string {
	if m.status != "" {
		if m.statusIsError {
			return m.theme.StatusBar.Render(m.theme.StatusError.Render("✗ " + m.status))
		}
		return m.theme.StatusBar.Render(m.theme.StatusOK.Render("✓ " + m.status))
	}

	shortcuts := []struct{ k, d string }{
		{"Enter", "send"},
		{"C-p", "model"},
		{"C-n", "new"},
		{"C-o", "sessions"},
		{"C-y", "copy"},
		{"C-t", "speak"},
		{"C-c", "quit"},
	}
	parts := make([]string, 0, len(shortcuts)+1)
	for _, s := range shortcuts {
		parts = append(parts, m.theme.ShortcutKey.Render(s.k)+" "+m.theme.ShortcutDesc.Render(s.d))
	}
	if m.stats != "" {
		parts = append(parts, m.theme.ShortcutDesc.Render(m.stats))
	}
	return m.theme.StatusBar.Render(strings.Join(parts, "  "))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// rebuildTranscript re-renders all finalized messages. Only call while
// the controller is idle.
func (m *Model) rebuildTranscript() {
	var b strings.Builder
	for _, msg := range m.session.Messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		b.WriteString(m.renderMessage(msg))
	}
	m.transcript = b.String()
}

// refreshViewport pushes the transcript plus the in-flight turn into
// the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	var b strings.Builder
	b.WriteString(m.transcript)

	if m.pendingUser != "" {
		b.WriteString(m.renderTurnEntry(m.theme.UserLabel.Render("You"), m.pendingUser))
	}
	if m.state == StateStreaming {
		text := m.streamText
		if text == "" {
			text = "..."
		}
		b.WriteString(m.renderTurnEntry(m.theme.AssistantLabel.Render("Assistant"), text))
	}

	m.viewport.SetContent(b.String())
}

// renderMessage renders one finalized message with its label line.
func (m Model) renderMessage(msg *model.Message) string {
	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render("You")
	case model.RoleAssistant:
		label = m.theme.AssistantLabel.Render("Assistant")
	default:
		label = m.theme.SystemLabel.Render(msg.Role.DisplayName())
	}
	label += " " + m.theme.Timestamp.Render(formatTimestamp(msg.CreatedAt))

	body := msg.DisplayContent()
	if msg.Role == model.RoleAssistant && m.cfg.UI.RenderMarkdown {
		body = renderMarkdown(body, m.viewport.Width-2)
	} else {
		body = wrapText(body, m.viewport.Width-2)
	}

	out := label + "\n" + body + "\n"
	if msg.Incomplete {
		out += m.theme.Incomplete.Render("(response interrupted)") + "\n"
	}
	return out + "\n"
}

// renderTurnEntry renders an in-flight transcript entry without
// markdown, which would be unstable on partial input.
func (m Model) renderTurnEntry(label, text string) string {
	return label + "\n" + wrapText(text, m.viewport.Width-2) + "\n\n"
}
