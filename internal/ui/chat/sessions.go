// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ollachat/ollachat/internal/model"
)

// =============================================================================
// SESSION PICKER
// =============================================================================

// sessionPicker is the overlay for switching, searching and deleting
// sessions.
type sessionPicker struct {
	all      []*model.Session
	filtered []*model.Session
	query    string
	cursor   int
}

func newSessionPicker(sessions []*model.Session) *sessionPicker {
	return &sessionPicker{all: sessions, filtered: sessions}
}

// filter narrows the list to ids containing the query.
func (p *sessionPicker) filter() {
	if p.query == "" {
		p.filtered = p.all
	} else {
		q := strings.ToLower(p.query)
		out := make([]*model.Session, 0, len(p.all))
		for _, s := range p.all {
			if strings.Contains(strings.ToLower(s.ID), q) {
				out = append(out, s)
			}
		}
		p.filtered = out
	}
	if p.cursor >= len(p.filtered) {
		p.cursor = 0
	}
}

func (p *sessionPicker) selected() *model.Session {
	if len(p.filtered) == 0 {
		return nil
	}
	return p.filtered[p.cursor]
}

// handlePickerKey processes keys while the overlay is open.
func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.picker

	switch msg.String() {
	case "esc":
		m.picker = nil
		return m, nil

	case "up", "ctrl+k":
		if p.cursor > 0 {
			p.cursor--
		}
		return m, nil

	case "down", "ctrl+j":
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
		}
		return m, nil

	case "enter":
		sel := p.selected()
		m.picker = nil
		if sel == nil {
			return m, nil
		}
		m.session = sel
		m.rebuildTranscript()
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case "ctrl+d":
		sel := p.selected()
		if sel == nil {
			return m, nil
		}
		if sel.ID == m.session.ID {
			return m, statusCmd("cannot delete the active session", true)
		}
		if err := m.store.Delete(sel.ID); err != nil {
			return m, statusCmd("delete failed: "+err.Error(), true)
		}
		p.all = m.store.List()
		p.filter()
		return m, nil

	case "backspace":
		if p.query != "" {
			p.query = p.query[:len(p.query)-1]
			p.filter()
		}
		return m, nil

	default:
		if msg.Type == tea.KeyRunes {
			p.query += string(msg.Runes)
			p.filter()
		}
		return m, nil
	}
}

// renderPicker draws the overlay as a full screen list.
func (m Model) renderPicker() string {
	p := m.picker

	var b strings.Builder
	b.WriteString(m.theme.Header.Render("sessions"))
	b.WriteString("  ")
	if p.query != "" {
		b.WriteString(m.theme.HeaderModel.Render("/" + p.query))
	} else {
		b.WriteString(m.theme.SessionMeta.Render("type to search"))
	}
	b.WriteString("\n\n")

	if len(p.filtered) == 0 {
		b.WriteString(m.theme.SessionMeta.Render("  no sessions match"))
		b.WriteString("\n")
	}

	maxRows := m.height - 5
	for i, s := range p.filtered {
		if i >= maxRows {
			b.WriteString(m.theme.SessionMeta.Render(fmt.Sprintf("  ... %d more", len(p.filtered)-maxRows)))
			b.WriteString("\n")
			break
		}
		line := fmt.Sprintf("%-24s %s", s.ID, s.Title())
		meta := fmt.Sprintf(" %d msgs · %s", len(s.Messages), s.CreatedAt.Format("Jan 2 15:04"))
		if i == p.cursor {
			b.WriteString(m.theme.SessionItemSelected.Render("> " + line))
		} else {
			b.WriteString(m.theme.SessionItem.Render("  " + line))
		}
		b.WriteString(m.theme.SessionMeta.Render(meta))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.StatusBar.Render(
		m.theme.ShortcutKey.Render("Enter") + m.theme.ShortcutDesc.Render(" open  ") +
			m.theme.ShortcutKey.Render("C-d") + m.theme.ShortcutDesc.Render(" delete  ") +
			m.theme.ShortcutKey.Render("Esc") + m.theme.ShortcutDesc.Render(" close")))
	return b.String()
}
