// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/ollachat/ollachat/internal/model"
	"github.com/ollachat/ollachat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// StoreError is the error type for history persistence failures.
type StoreError struct {
	Op      string
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is matches StoreErrors by Op so wrapped errors compare against the
// sentinels.
func (e *StoreError) Is(target error) bool {
	var se *StoreError
	if errors.As(target, &se) {
		return e.Op == se.Op
	}
	return false
}

// Sentinel errors for errors.Is checks.
var (
	// ErrCorruptHistory means the history file exists but does not
	// parse as the expected mapping shape.
	ErrCorruptHistory = &StoreError{Op: "corrupt", Message: "history file is corrupt"}
	// ErrSessionNotFound means the named session is not in the store.
	ErrSessionNotFound = &StoreError{Op: "not_found", Message: "session not found"}
	// ErrSessionExists means a session with that id already exists.
	ErrSessionExists = &StoreError{Op: "exists", Message: "session already exists"}
)

// =============================================================================
// STORE
// =============================================================================

// Store persists all chat sessions as one JSON document mapping session
// id to session. Every mutation rewrites the whole file atomically, so
// write cost grows with total history size. That is fine for chat-sized
// data; the tradeoff is a file that is always complete and always
// parseable.
type Store struct {
	path string

	mu       sync.Mutex
	sessions map[string]*model.Session
}

// NewStore creates a store over the given file path. Call Load before
// using it.
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		sessions: make(map[string]*model.Session),
	}
}

// Path returns the history file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the history file into memory. An absent file is an empty
// store. A file that does not parse returns ErrCorruptHistory; the
// in-memory state stays empty so the caller can continue with a fresh
// transcript without overwriting the broken file by accident.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.sessions = make(map[string]*model.Session)
			return nil
		}
		return &StoreError{Op: "load", Message: "failed to read history file", Cause: err}
	}

	var loaded map[string]*model.Session
	if err := json.Unmarshal(data, &loaded); err != nil {
		util.Debugf("history load: %s does not parse: %v", s.path, err)
		s.sessions = make(map[string]*model.Session)
		return &StoreError{Op: "corrupt", Message: fmt.Sprintf("history file %s is corrupt", s.path), Cause: err}
	}
	if loaded == nil {
		loaded = make(map[string]*model.Session)
	}

	// The id lives in the map key, not the session body.
	for id, sess := range loaded {
		if sess == nil {
			delete(loaded, id)
			continue
		}
		sess.ID = id
	}

	s.sessions = loaded
	return nil
}

// Save writes the full mapping back to disk atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.sessions, "", "  ")
	if err != nil {
		return &StoreError{Op: "save", Message: "failed to encode history", Cause: err}
	}
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		return &StoreError{Op: "save", Message: "failed to write history file", Cause: err}
	}
	return nil
}

// =============================================================================
// SESSION OPERATIONS
// =============================================================================

// Get returns the session with the given id.
func (s *Store) Get(id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Create adds a new session and persists. The session id must not be
// in use.
func (s *Store) Create(sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; ok {
		return ErrSessionExists
	}
	s.sessions[sess.ID] = sess
	return s.saveLocked()
}

// Put inserts or replaces a session and persists.
func (s *Store) Put(sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess
	return s.saveLocked()
}

// AppendMessage appends a message to an existing session and persists.
func (s *Store) AppendMessage(id string, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.AddMessage(msg)
	return s.saveLocked()
}

// Delete removes a session and persists.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return s.saveLocked()
}

// Rename moves a session to a new id and persists.
func (s *Store) Rename(oldID, newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[oldID]
	if !ok {
		return ErrSessionNotFound
	}
	if _, ok := s.sessions[newID]; ok {
		return ErrSessionExists
	}
	delete(s.sessions, oldID)
	sess.ID = newID
	s.sessions[newID] = sess
	return s.saveLocked()
}

// List returns all sessions, newest first.
func (s *Store) List() []*model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Search returns sessions whose id contains the query, case
// insensitively, newest first. An empty query returns everything.
func (s *Store) Search(query string) []*model.Session {
	all := s.List()
	if query == "" {
		return all
	}
	q := strings.ToLower(query)
	out := all[:0:0]
	for _, sess := range all {
		if strings.Contains(strings.ToLower(sess.ID), q) {
			out = append(out, sess)
		}
	}
	return out
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
