// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech speaks message text aloud through whatever TTS engine
// the host provides. Playback is fire-and-forget: Speak returns once
// the engine process has started, and engine failures surface as
// warnings, never as chat errors.
package speech

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrEngineNotFound means no TTS engine is installed on this host.
var ErrEngineNotFound = errors.New("no speech engine found")

// Speaker runs a text-to-speech engine.
type Speaker struct {
	// engine overrides auto-detection when set, split on whitespace
	// into command and leading arguments.
	engine string
}

// NewSpeaker creates a speaker. engineOverride may be empty, in which
// case the platform default engines are probed at speak time.
func NewSpeaker(engineOverride string) *Speaker {
	return &Speaker{engine: engineOverride}
}

// Speak starts speaking text and returns without waiting for playback
// to finish. The returned error only reports failure to start the
// engine; playback problems after that are ignored.
func (s *Speaker) Speak(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	cmd, err := s.command(text)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("speech engine failed to start: %w", err)
	}

	// Reap the process in the background so it never zombies.
	go cmd.Wait()
	return nil
}

// command builds the engine invocation for this host.
func (s *Speaker) command(text string) (*exec.Cmd, error) {
	if s.engine != "" {
		parts := strings.Fields(s.engine)
		if _, err := exec.LookPath(parts[0]); err != nil {
			return nil, fmt.Errorf("%w: configured engine %q is not installed", ErrEngineNotFound, parts[0])
		}
		args := append(parts[1:], text)
		return exec.Command(parts[0], args...), nil
	}
	return platformCommand(text)
}
