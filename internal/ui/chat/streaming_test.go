// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"testing"
)

func TestStreamingBufferWriteFlush(t *testing.T) {
	b := NewStreamingBuffer()
	b.Write("Hi")
	b.Write(" there")

	if b.Len() != 8 {
		t.Errorf("Len = %d, want 8", b.Len())
	}
	if got := b.Flush(); got != "Hi there" {
		t.Errorf("Flush = %q, want %q", got, "Hi there")
	}
	if got := b.Flush(); got != "" {
		t.Errorf("second Flush = %q, want empty", got)
	}
}

func TestStreamingBufferReset(t *testing.T) {
	b := NewStreamingBuffer()
	b.Write("leftover")
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", b.Len())
	}
}

func TestStreamingBufferConcurrentWrites(t *testing.T) {
	b := NewStreamingBuffer()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Write("x")
			}
		}()
	}
	wg.Wait()

	total := len(b.Flush())
	if total != 1000 {
		t.Errorf("flushed %d bytes, want 1000", total)
	}
}
