// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader parses the line-delimited JSON stream that /api/chat
// produces when Stream is true.
type StreamReader struct {
	reader      *bufio.Reader
	accumulator strings.Builder
	model       string
}

// NewStreamReader creates a stream reader over the response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{reader: bufio.NewReader(r)}
}

// Process reads the stream to completion, invoking callback once per
// chunk. Returns nil on a clean end (final Done chunk or EOF), the
// context error on cancellation, or the read error otherwise.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			if chunk != nil {
				callback(*chunk)
				if chunk.Done {
					return nil
				}
			}
		}
	}
}

// Content returns everything accumulated so far.
func (s *StreamReader) Content() string {
	return s.accumulator.String()
}

// readChunk reads and parses one line. Returns (nil, nil) for empty or
// malformed lines, which are skipped.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		// A final line without a trailing newline is still parsed.
		if len(line) == 0 {
			return nil, err
		}
	}

	if len(line) == 0 {
		return nil, nil
	}

	var response struct {
		Model     string    `json:"model"`
		CreatedAt time.Time `json:"created_at"`
		Message   struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Done               bool   `json:"done"`
		DoneReason         string `json:"done_reason,omitempty"`
		Error              string `json:"error,omitempty"`
		TotalDuration      int64  `json:"total_duration,omitempty"`
		LoadDuration       int64  `json:"load_duration,omitempty"`
		PromptEvalCount    int    `json:"prompt_eval_count,omitempty"`
		EvalCount          int    `json:"eval_count,omitempty"`
		EvalDuration       int64  `json:"eval_duration,omitempty"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	if response.Error != "" {
		return nil, fmt.Errorf("ollama: %s", response.Error)
	}

	if response.Model != "" {
		s.model = response.Model
	}

	content := response.Message.Content
	if content != "" {
		s.accumulator.WriteString(content)
	}

	chunk := &StreamChunk{
		Content:    content,
		Done:       response.Done,
		DoneReason: response.DoneReason,
		Model:      s.model,
	}

	if response.Done {
		chunk.TotalDuration = time.Duration(response.TotalDuration)
		chunk.LoadDuration = time.Duration(response.LoadDuration)
		chunk.EvalDuration = time.Duration(response.EvalDuration)
		chunk.PromptTokens = response.PromptEvalCount
		chunk.CompletionTokens = response.EvalCount
	}

	return chunk, nil
}

// =============================================================================
// STREAM STATS
// =============================================================================

// StreamStats aggregates timing for one streamed response.
type StreamStats struct {
	StartTime        time.Time
	FirstTokenTime   time.Time
	EndTime          time.Time
	CompletionTokens int
}

// NewStreamStats starts the clock for a stream.
func NewStreamStats() *StreamStats {
	return &StreamStats{StartTime: time.Now()}
}

// RecordFirstToken marks time-to-first-token. Subsequent calls are
// no-ops.
func (s *StreamStats) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
	}
}

// Finalize stops the clock and records the token count from the final
// chunk.
func (s *StreamStats) Finalize(chunk StreamChunk) {
	s.EndTime = time.Now()
	s.CompletionTokens = chunk.CompletionTokens
}

// TTFT returns the time to first token, or zero if none arrived.
func (s *StreamStats) TTFT() time.Duration {
	if s.FirstTokenTime.IsZero() {
		return 0
	}
	return s.FirstTokenTime.Sub(s.StartTime)
}

// TokensPerSecond returns the generation rate, or zero when unknown.
func (s *StreamStats) TokensPerSecond() float64 {
	if s.EndTime.IsZero() || s.CompletionTokens == 0 {
		return 0
	}
	elapsed := s.EndTime.Sub(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.CompletionTokens) / elapsed
}

// Format renders the stats for a status line, e.g.
// "42 tokens, 18.3 tok/s, ttft 120ms".
func (s *StreamStats) Format() string {
	if s.CompletionTokens == 0 {
		return ""
	}
	out := fmt.Sprintf("%d tokens", s.CompletionTokens)
	if tps := s.TokensPerSecond(); tps > 0 {
		out += fmt.Sprintf(", %.1f tok/s", tps)
	}
	if ttft := s.TTFT(); ttft > 0 {
		out += fmt.Sprintf(", ttft %s", ttft.Round(time.Millisecond))
	}
	return out
}
