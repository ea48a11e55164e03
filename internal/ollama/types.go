// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"fmt"
	"time"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// Message is a chat message in the Ollama wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// ChatRequest is the request body for /api/chat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *Options  `json:"options,omitempty"`
}

// Options holds model sampling parameters. Only fields the user has set
// are sent; zero values are omitted.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	NumCtx      int     `json:"num_ctx,omitempty"`
}

// ChatResponse is the non-streaming response from /api/chat.
type ChatResponse struct {
	Model         string        `json:"model"`
	CreatedAt     time.Time     `json:"created_at"`
	Message       Message       `json:"message"`
	Done          bool          `json:"done"`
	TotalDuration time.Duration `json:"total_duration"`
	EvalCount     int           `json:"eval_count"`
}

// ModelInfo describes one installed model as reported by /api/tags.
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

// ListModelsResponse is the response from /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// OllamaError is the error body Ollama returns on failed requests.
type OllamaError struct {
	Error string `json:"error"`
}

// =============================================================================
// STREAMING
// =============================================================================

// StreamChunk is one increment of a streamed chat response. Content
// carries the text delta; the duration and count fields are only set on
// the final chunk where Done is true.
type StreamChunk struct {
	Content          string
	Done             bool
	DoneReason       string
	Model            string
	TotalDuration    time.Duration
	LoadDuration     time.Duration
	EvalDuration     time.Duration
	PromptTokens     int
	CompletionTokens int
}

// StreamCallback receives chunks as they arrive. Called from the
// goroutine driving the stream; each chunk is delivered exactly once,
// in order.
type StreamCallback func(chunk StreamChunk)

// =============================================================================
// FORMATTING
// =============================================================================

// FormatSize renders a byte count in human units.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
