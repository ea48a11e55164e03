// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// streamFrameInterval paces viewport redraws while streaming. Chunks
// arrive far faster than a terminal can usefully repaint; batching
// them at ~30fps keeps the UI smooth without burning CPU.
const streamFrameInterval = 33 * time.Millisecond

// StreamingBuffer collects chunks between frames. Chunks are written
// from the stream goroutine and flushed on the update loop, so access
// is mutex-guarded.
type StreamingBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

// NewStreamingBuffer creates an empty buffer.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{}
}

// Write appends a chunk to the buffer.
func (b *StreamingBuffer) Write(chunk string) {
	b.mu.Lock()
	b.buf.WriteString(chunk)
	b.mu.Unlock()
}

// Flush returns everything buffered since the last flush and resets.
func (b *StreamingBuffer) Flush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.buf.String()
	b.buf.Reset()
	return out
}

// Len reports how much text is waiting to be flushed.
func (b *StreamingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// Reset discards any buffered text.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	b.buf.Reset()
	b.mu.Unlock()
}

// streamTickCmd schedules the next streaming frame.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamFrameInterval, func(time.Time) tea.Msg {
		return StreamTickMsg{}
	})
}
