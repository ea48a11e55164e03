// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
)

// cancelManager guards the cancel function of the in-flight stream.
// It lives behind a pointer because tea copies the Model on every
// update and a mutex must not be copied.
type cancelManager struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set stores the cancel function for the current stream, cancelling
// any previous one first.
func (c *cancelManager) set(cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
}

// fire cancels the in-flight stream, if any.
func (c *cancelManager) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// clear forgets the cancel function without firing it.
func (c *cancelManager) clear() {
	c.mu.Lock()
	c.cancel = nil
	c.mu.Unlock()
}
