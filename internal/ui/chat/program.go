// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// The streaming goroutine needs to push messages into the running
// program, but the program handle only exists after tea.NewProgram
// returns. A guarded package-level reference bridges the gap.

var (
	programMu  sync.Mutex
	programRef *tea.Program
)

// SetProgram registers the running program so stream goroutines can
// deliver messages to it. Call once, right after tea.NewProgram.
func SetProgram(p *tea.Program) {
	programMu.Lock()
	programRef = p
	programMu.Unlock()
}

// sendToProgram delivers a message to the running program, dropping it
// when no program is registered (tests).
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
