// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClientWithConfig(ClientConfig{BaseURL: url, Timeout: 2 * time.Second})
}

func TestCheckRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Ollama is running")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning failed against live server: %v", err)
	}
}

func TestCheckRunningDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL)
	err := c.CheckRunning(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("expected not-running error, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"models":[{"name":"llama3:8b","size":4661224676},{"name":"embed-v1:latest","size":274302450}]}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].Name != "llama3:8b" {
		t.Errorf("models[0].Name = %q", models[0].Name)
	}
}

func TestListModelsServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.ListModels(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("expected not-running error, got %v", err)
	}
}

func TestChatModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"model 'missing' not found"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Chat(context.Background(), "missing", []Message{NewUserMessage("hi")})
	if !IsModelNotFound(err) {
		t.Errorf("expected model-not-found error, got %v", err)
	}
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"model":"m1","message":{"role":"assistant","content":"hello back"},"done":true}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.Chat(context.Background(), "m1", []Message{NewUserMessage("hello")})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content != "hello back" {
		t.Errorf("content = %q", resp.Message.Content)
	}
}

func streamBody(chunks []string) string {
	var b strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&b, `{"model":"m1","message":{"role":"assistant","content":%q},"done":false}`+"\n", c)
	}
	b.WriteString(`{"model":"m1","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","eval_count":7}` + "\n")
	return b.String()
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, streamBody([]string{"Hi", " there"}))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	var got []string
	var final *StreamChunk
	err := c.ChatStream(context.Background(), "m1", []Message{NewUserMessage("Hello")}, func(chunk StreamChunk) {
		if chunk.Done {
			cp := chunk
			final = &cp
			return
		}
		got = append(got, chunk.Content)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if strings.Join(got, "") != "Hi there" {
		t.Errorf("accumulated %q, want %q", strings.Join(got, ""), "Hi there")
	}
	if final == nil {
		t.Fatal("no final chunk observed")
	}
	if final.CompletionTokens != 7 {
		t.Errorf("CompletionTokens = %d, want 7", final.CompletionTokens)
	}
}

func TestChatStreamCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"model":"m1","message":{"role":"assistant","content":"Hi"},"done":false}`+"\n")
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(srv.URL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.ChatStream(ctx, "m1", []Message{NewUserMessage("Hello")}, func(chunk StreamChunk) {
			if chunk.Content != "" {
				cancel()
			}
		})
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

func TestStreamReaderSkipsMalformedLines(t *testing.T) {
	body := `{"message":{"content":"a"},"done":false}
not json at all
{"message":{"content":"b"},"done":true}
`
	r := NewStreamReader(strings.NewReader(body))
	var got []string
	err := r.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Content != "" {
			got = append(got, chunk.Content)
		}
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if strings.Join(got, "") != "ab" {
		t.Errorf("got %q, want %q", strings.Join(got, ""), "ab")
	}
}

func TestStreamReaderErrorLine(t *testing.T) {
	body := `{"error":"model overloaded"}` + "\n"
	r := NewStreamReader(strings.NewReader(body))
	err := r.Process(context.Background(), func(StreamChunk) {})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("expected server error to surface, got %v", err)
	}
}

func TestStreamReaderLastLineWithoutNewline(t *testing.T) {
	body := `{"message":{"content":"x"},"done":true}`
	r := NewStreamReader(strings.NewReader(body))
	var got string
	err := r.Process(context.Background(), func(chunk StreamChunk) {
		got += chunk.Content
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got != "x" {
		t.Errorf("got %q, want %q", got, "x")
	}
}

func TestStreamStats(t *testing.T) {
	s := NewStreamStats()
	s.RecordFirstToken()
	first := s.FirstTokenTime
	s.RecordFirstToken()
	if s.FirstTokenTime != first {
		t.Error("RecordFirstToken must be idempotent")
	}

	s.Finalize(StreamChunk{Done: true, CompletionTokens: 42})
	if s.CompletionTokens != 42 {
		t.Errorf("CompletionTokens = %d", s.CompletionTokens)
	}
	if !strings.Contains(s.Format(), "42 tokens") {
		t.Errorf("Format() = %q", s.Format())
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{4661224676, "4.3 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
