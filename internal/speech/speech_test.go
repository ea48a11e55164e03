// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"errors"
	"testing"
)

func TestSpeakEmptyTextIsNoop(t *testing.T) {
	s := NewSpeaker("definitely-not-a-real-engine")
	if err := s.Speak("   "); err != nil {
		t.Errorf("blank text must be a no-op, got %v", err)
	}
}

func TestSpeakMissingConfiguredEngine(t *testing.T) {
	s := NewSpeaker("definitely-not-a-real-engine --flag")
	err := s.Speak("hello")
	if !errors.Is(err, ErrEngineNotFound) {
		t.Errorf("expected ErrEngineNotFound, got %v", err)
	}
}

func TestSpeakWithFakeEngine(t *testing.T) {
	// `true` exists on any unix PATH and exits immediately, standing in
	// for a real engine without making noise in CI.
	s := NewSpeaker("true")
	if err := s.Speak("hello"); err != nil {
		t.Skipf("no `true` binary on this host: %v", err)
	}
}
