// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// DefaultSessionID is the scratch session used before the user saves a
// chat under a name of their own.
const DefaultSessionID = "general"

// ScratchSessionLimit bounds the scratch session so an unsaved chat does
// not grow without end. Oldest non-system messages are dropped first.
const ScratchSessionLimit = 24

// Session is one named, ordered chat transcript.
type Session struct {
	ID          string     `json:"-"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Messages    []*Message `json:"messages"`
}

// NewSession creates a session seeded with a system message that
// establishes the assistant's behavior.
func NewSession(id, modelName string) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
	}
	prompt := fmt.Sprintf(
		"You are a helpful assistant running inside ollachat, a terminal chat client. Your model name is %s. Answer concisely.",
		modelName)
	s.Messages = append(s.Messages, NewSystemMessage(prompt))
	return s
}

// AddMessage appends a message to the transcript.
func (s *Session) AddMessage(msg *Message) {
	s.Messages = append(s.Messages, msg)
}

// Last returns the most recent message, or nil for an empty session.
func (s *Session) Last() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// AppendToLast appends a streamed chunk to the most recent message.
func (s *Session) AppendToLast(chunk string) {
	if last := s.Last(); last != nil {
		last.AppendChunk(chunk)
	}
}

// FinalizeLast ends streaming on the most recent message.
func (s *Session) FinalizeLast(incomplete bool) {
	if last := s.Last(); last != nil {
		last.FinalizeStream(incomplete)
	}
}

// SystemMessage returns the session's system message, or nil.
func (s *Session) SystemMessage() *Message {
	for _, m := range s.Messages {
		if m.Role == RoleSystem {
			return m
		}
	}
	return nil
}

// Window returns the messages to send to the backend, capped at n. The
// most recent messages win; the oldest are dropped first. A system
// message, if present, is always retained as the first entry and counts
// toward the cap. n <= 0 means no cap.
func (s *Session) Window(n int) []*Message {
	if n <= 0 || len(s.Messages) <= n {
		out := make([]*Message, len(s.Messages))
		copy(out, s.Messages)
		return out
	}

	tail := s.Messages[len(s.Messages)-n:]
	sys := s.SystemMessage()
	if sys == nil {
		out := make([]*Message, n)
		copy(out, tail)
		return out
	}

	for _, m := range tail {
		if m == sys {
			out := make([]*Message, n)
			copy(out, tail)
			return out
		}
	}

	// System message fell outside the tail: give it the oldest slot.
	out := make([]*Message, 0, n)
	out = append(out, sys)
	out = append(out, tail[1:]...)
	return out
}

// Trim drops the oldest non-system messages until the transcript holds
// at most limit entries. Used for the scratch session.
func (s *Session) Trim(limit int) {
	if limit <= 0 || len(s.Messages) <= limit {
		return
	}
	kept := make([]*Message, 0, limit)
	drop := len(s.Messages) - limit
	for _, m := range s.Messages {
		if drop > 0 && m.Role != RoleSystem {
			drop--
			continue
		}
		kept = append(kept, m)
	}
	s.Messages = kept
}

// Title returns a short label for the session derived from its first
// user message, falling back to the session id.
func (s *Session) Title() string {
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			return m.Preview(50)
		}
	}
	return s.ID
}

// Clone returns a deep copy of the session. Streaming state is not
// carried over; all cloned messages are final.
func (s *Session) Clone() *Session {
	out := &Session{
		ID:          s.ID,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		Messages:    make([]*Message, 0, len(s.Messages)),
	}
	for _, m := range s.Messages {
		cp := &Message{
			ID:         m.ID,
			Role:       m.Role,
			Content:    m.DisplayContent(),
			CreatedAt:  m.CreatedAt,
			Incomplete: m.Incomplete,
		}
		out.Messages = append(out.Messages, cp)
	}
	return out
}
