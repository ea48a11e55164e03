// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ollachat/ollachat/internal/history"
	"github.com/ollachat/ollachat/internal/model"
	"github.com/ollachat/ollachat/internal/ollama"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTurnInFlight means a turn is already streaming. Input surfaces
	// reject new submissions instead of letting them interleave.
	ErrTurnInFlight = errors.New("a response is already streaming")

	// ErrStreamInterrupted means the stream ended before the backend
	// finished. The partial content is finalized and persisted, flagged
	// incomplete, before this is returned.
	ErrStreamInterrupted = errors.New("response stream interrupted")
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Streamer is the slice of the backend client a turn needs.
type Streamer interface {
	ChatStream(ctx context.Context, modelName string, messages []ollama.Message, callback ollama.StreamCallback) error
}

// Controller drives one request/response exchange at a time: append the
// user message, stream the reply chunk by chunk, finalize and persist.
// It moves between two states, idle and streaming; Run while streaming
// fails fast with ErrTurnInFlight.
type Controller struct {
	client Streamer
	store  *history.Store

	// window caps how many messages are sent to the backend per turn.
	window int

	mu        sync.Mutex
	streaming bool
}

// NewController creates a controller. window <= 0 disables the history
// cap.
func NewController(client Streamer, store *history.Store, window int) *Controller {
	return &Controller{client: client, store: store, window: window}
}

// Busy reports whether a turn is currently streaming.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.streaming {
		return ErrTurnInFlight
	}
	c.streaming = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.streaming = false
	c.mu.Unlock()
}

// Result describes a completed (or interrupted) turn.
type Result struct {
	// Message is the finalized assistant message, already part of the
	// session and persisted.
	Message *model.Message
	// Stats holds timing and token counts for the stream.
	Stats *ollama.StreamStats
}

// Run executes one turn against the given session. The user input is
// appended and persisted first, then the capped message window goes to
// the backend and the reply streams in. onChunk is called once per text
// chunk, in order, on the calling goroutine; it is the point where the
// UI redraws. A nil onChunk is allowed.
//
// On any mid-stream failure, including cancellation through ctx, the
// partial reply is finalized as-is, flagged incomplete, persisted, and
// the returned error wraps ErrStreamInterrupted.
func (c *Controller) Run(ctx context.Context, sess *model.Session, modelName, input string, onChunk func(string)) (*Result, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	// The user message is persisted before the request goes out, so a
	// crash mid-stream never loses what the user typed.
	userMsg := model.NewUserMessage(input)
	sess.AddMessage(userMsg)
	if sess.ID == model.DefaultSessionID {
		sess.Trim(model.ScratchSessionLimit)
	}
	if err := c.store.Put(sess); err != nil {
		// Abort rather than continue with unsaved input.
		sess.Messages = sess.Messages[:len(sess.Messages)-1]
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	// Snapshot the outgoing window before the reply placeholder joins
	// the transcript.
	wire := toWire(sess.Window(c.window))

	assistant := model.NewStreamingMessage()
	sess.AddMessage(assistant)

	stats := ollama.NewStreamStats()
	streamErr := c.client.ChatStream(ctx, modelName, wire, func(chunk ollama.StreamChunk) {
		if chunk.Done {
			stats.Finalize(chunk)
			return
		}
		if chunk.Content == "" {
			return
		}
		stats.RecordFirstToken()
		assistant.AppendChunk(chunk.Content)
		if onChunk != nil {
			onChunk(chunk.Content)
		}
	})

	interrupted := streamErr != nil
	assistant.FinalizeStream(interrupted)

	if err := c.store.Put(sess); err != nil {
		if interrupted {
			return nil, fmt.Errorf("%w: %w (and saving the partial reply failed: %v)", ErrStreamInterrupted, streamErr, err)
		}
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	result := &Result{Message: assistant, Stats: stats}
	if interrupted {
		return result, fmt.Errorf("%w: %w", ErrStreamInterrupted, streamErr)
	}
	return result, nil
}

// toWire converts transcript messages to the backend wire format,
// dropping anything with no content to send.
func toWire(msgs []*model.Message) []ollama.Message {
	out := make([]ollama.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.IsStreaming {
			continue
		}
		if m.Content == "" {
			continue
		}
		out = append(out, ollama.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}
