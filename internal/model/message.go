// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ollachat/ollachat/internal/util"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message is a single transcript entry. User and system messages are
// immutable once created. Assistant messages are append-only while a
// stream is in flight and immutable after FinalizeStream.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Incomplete marks an assistant message whose stream ended early.
	// The content holds whatever was produced before the interruption.
	Incomplete bool `json:"incomplete,omitempty"`

	// IsStreaming is true while chunks are still being appended.
	// Not persisted; a loaded message is always final.
	IsStreaming bool `json:"-"`

	// streamContent accumulates chunks without repeated string copies.
	streamContent strings.Builder
}

// NewMessage creates a finalized message with the given role and content.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewUserMessage creates a finalized user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewSystemMessage creates a finalized system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewStreamingMessage creates an empty assistant message ready to
// receive chunks.
func NewStreamingMessage() *Message {
	m := NewMessage(RoleAssistant, "")
	m.IsStreaming = true
	return m
}

// AppendChunk adds one streamed chunk to the message. No-op once the
// message has been finalized.
func (m *Message) AppendChunk(chunk string) {
	if !m.IsStreaming {
		return
	}
	m.streamContent.WriteString(chunk)
}

// FinalizeStream ends streaming, moving the accumulated chunks into
// Content. incomplete marks the stream as interrupted; the partial
// content is kept rather than discarded.
func (m *Message) FinalizeStream(incomplete bool) {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.Incomplete = incomplete
	m.IsStreaming = false
	m.streamContent.Reset()
}

// DisplayContent returns the text to render: the live accumulator while
// streaming, the final content afterwards.
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// Preview returns a single-line truncated form of the content, used for
// session listings.
func (m *Message) Preview(maxRunes int) string {
	content := strings.ReplaceAll(m.DisplayContent(), "\n", " ")
	return util.TruncateRunes(content, maxRunes)
}
