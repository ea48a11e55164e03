// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ollachat/ollachat/internal/history"
	"github.com/ollachat/ollachat/internal/model"
	"github.com/ollachat/ollachat/internal/ollama"
)

// fakeStreamer replays scripted chunks, optionally failing partway.
type fakeStreamer struct {
	mu         sync.Mutex
	chunks     []string
	failMsg    string
	failMidway bool
	gotModel   string
	gotMsgs    []ollama.Message
	block      chan struct{}
}

func (f *fakeStreamer) ChatStream(ctx context.Context, modelName string, messages []ollama.Message, callback ollama.StreamCallback) error {
	f.mu.Lock()
	f.gotModel = modelName
	f.gotMsgs = messages
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, c := range f.chunks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		callback(ollama.StreamChunk{Content: c})
	}
	if f.failMidway {
		return errors.New(f.failMsg)
	}
	callback(ollama.StreamChunk{Done: true, DoneReason: "stop", CompletionTokens: len(f.chunks)})
	return nil
}

func newStore(t *testing.T) *history.Store {
	t.Helper()
	s := history.NewStore(filepath.Join(t.TempDir(), "chats.json"))
	require.NoError(t, s.Load())
	return s
}

func TestRunHappyPath(t *testing.T) {
	store := newStore(t)
	streamer := &fakeStreamer{chunks: []string{"Hi", " there"}}
	c := NewController(streamer, store, 0)

	sess := &model.Session{ID: "s1", CreatedAt: time.Now()}
	require.NoError(t, store.Create(sess))

	var seen []string
	res, err := c.Run(context.Background(), sess, "m1", "Hello", func(chunk string) {
		seen = append(seen, chunk)
	})
	require.NoError(t, err)
	require.Equal(t, "Hi there", res.Message.Content)
	require.False(t, res.Message.Incomplete)
	require.Equal(t, []string{"Hi", " there"}, seen)

	// The persisted transcript holds exactly the user turn and reply.
	reloaded := history.NewStore(store.Path())
	require.NoError(t, reloaded.Load())
	got, err := reloaded.Get("s1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	require.Equal(t, model.RoleUser, got.Messages[0].Role)
	require.Equal(t, "Hello", got.Messages[0].Content)
	require.Equal(t, model.RoleAssistant, got.Messages[1].Role)
	require.Equal(t, "Hi there", got.Messages[1].Content)
}

func TestRunSendsCappedWindow(t *testing.T) {
	store := newStore(t)
	streamer := &fakeStreamer{chunks: []string{"ok"}}
	c := NewController(streamer, store, 4)

	sess := &model.Session{ID: "s1", CreatedAt: time.Now()}
	for i := 0; i < 10; i++ {
		sess.AddMessage(model.NewUserMessage(strings.Repeat("m", i+1)))
	}
	require.NoError(t, store.Create(sess))

	_, err := c.Run(context.Background(), sess, "m1", "latest", nil)
	require.NoError(t, err)

	// Exactly the last 4 messages, in original order, ending with the
	// new user input.
	require.Len(t, streamer.gotMsgs, 4)
	require.Equal(t, "latest", streamer.gotMsgs[3].Content)
	require.Equal(t, strings.Repeat("m", 10), streamer.gotMsgs[2].Content)
	require.Equal(t, strings.Repeat("m", 9), streamer.gotMsgs[1].Content)
	require.Equal(t, strings.Repeat("m", 8), streamer.gotMsgs[0].Content)
}

func TestRunWindowKeepsSystemMessage(t *testing.T) {
	store := newStore(t)
	streamer := &fakeStreamer{chunks: []string{"ok"}}
	c := NewController(streamer, store, 3)

	sess := model.NewSession("s1", "m1")
	for i := 0; i < 8; i++ {
		sess.AddMessage(model.NewUserMessage("filler"))
	}
	require.NoError(t, store.Create(sess))

	_, err := c.Run(context.Background(), sess, "m1", "question", nil)
	require.NoError(t, err)

	require.Len(t, streamer.gotMsgs, 3)
	require.Equal(t, "system", streamer.gotMsgs[0].Role)
	require.Equal(t, "question", streamer.gotMsgs[2].Content)
}

func TestRunInterruptedKeepsPartial(t *testing.T) {
	store := newStore(t)
	streamer := &fakeStreamer{
		chunks:     []string{"The ans", "wer is"},
		failMidway: true,
		failMsg:    "connection reset",
	}
	c := NewController(streamer, store, 0)

	sess := &model.Session{ID: "s1", CreatedAt: time.Now()}
	require.NoError(t, store.Create(sess))

	res, err := c.Run(context.Background(), sess, "m1", "Hello", nil)
	require.ErrorIs(t, err, ErrStreamInterrupted)
	require.NotNil(t, res)

	// Concatenation of the chunks observed before the failure.
	require.Equal(t, "The answer is", res.Message.Content)
	require.True(t, res.Message.Incomplete)

	// And that partial reply survived to disk.
	reloaded := history.NewStore(store.Path())
	require.NoError(t, reloaded.Load())
	got, _ := reloaded.Get("s1")
	last := got.Messages[len(got.Messages)-1]
	require.Equal(t, "The answer is", last.Content)
	require.True(t, last.Incomplete)
}

func TestRunCancellation(t *testing.T) {
	store := newStore(t)
	streamer := &fakeStreamer{block: make(chan struct{})}
	c := NewController(streamer, store, 0)

	sess := &model.Session{ID: "s1", CreatedAt: time.Now()}
	require.NoError(t, store.Create(sess))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Run(ctx, sess, "m1", "Hello", nil)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrStreamInterrupted)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	require.False(t, c.Busy(), "controller must return to idle after cancellation")
}

func TestRunRejectsConcurrentTurn(t *testing.T) {
	store := newStore(t)
	streamer := &fakeStreamer{block: make(chan struct{})}
	c := NewController(streamer, store, 0)

	sess := &model.Session{ID: "s1", CreatedAt: time.Now()}
	require.NoError(t, store.Create(sess))

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		c.Run(context.Background(), sess, "m1", "first", nil)
		close(done)
	}()

	<-started
	// Wait until the first turn is inside the streamer.
	deadline := time.Now().Add(2 * time.Second)
	for !c.Busy() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, c.Busy())

	_, err := c.Run(context.Background(), sess, "m1", "second", nil)
	require.ErrorIs(t, err, ErrTurnInFlight)

	close(streamer.block)
	<-done
	require.False(t, c.Busy())
}

func TestRunScratchSessionTrimmed(t *testing.T) {
	store := newStore(t)
	streamer := &fakeStreamer{chunks: []string{"ok"}}
	c := NewController(streamer, store, 0)

	sess := model.NewSession(model.DefaultSessionID, "m1")
	for i := 0; i < model.ScratchSessionLimit+10; i++ {
		sess.AddMessage(model.NewUserMessage("old"))
	}
	require.NoError(t, store.Create(sess))

	_, err := c.Run(context.Background(), sess, "m1", "new", nil)
	require.NoError(t, err)

	// Trimmed to the limit plus the streamed reply, system message intact.
	require.LessOrEqual(t, len(sess.Messages), model.ScratchSessionLimit+1)
	require.Equal(t, model.RoleSystem, sess.Messages[0].Role)
}

func TestRunEmptyHistoryScenario(t *testing.T) {
	// Empty history file, one turn "Hello" streamed as ["Hi", " there"].
	path := filepath.Join(t.TempDir(), "chats.json")
	store := history.NewStore(path)
	require.NoError(t, store.Load())

	streamer := &fakeStreamer{chunks: []string{"Hi", " there"}}
	c := NewController(streamer, store, 0)

	sess := &model.Session{ID: "chat", CreatedAt: time.Now()}
	require.NoError(t, store.Create(sess))

	_, err := c.Run(context.Background(), sess, "m1", "Hello", nil)
	require.NoError(t, err)

	reloaded := history.NewStore(path)
	require.NoError(t, reloaded.Load())
	got, err := reloaded.Get("chat")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "Hello", got.Messages[0].Content)
	require.Equal(t, "Hi there", got.Messages[1].Content)
}
