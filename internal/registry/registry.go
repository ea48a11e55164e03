// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry exposes the models a user may chat with: the
// backend's installed models minus an operator-configured
// disallow-list. No caching; callers refetch as often as they like.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ollachat/ollachat/internal/ollama"
)

// ErrBackendUnavailable means the model list could not be fetched. The
// UI shows a disabled selector instead of crashing.
var ErrBackendUnavailable = errors.New("model backend unavailable")

// Lister is the slice of the backend client the registry needs.
type Lister interface {
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// Registry filters the backend model list through a disallow-list.
// Safe for concurrent use; the disallow-list can be swapped at runtime
// when the config file changes.
type Registry struct {
	lister Lister

	mu         sync.RWMutex
	disallowed map[string]struct{}
}

// New creates a registry over the given backend with an initial
// disallow-list.
func New(lister Lister, disallowed []string) *Registry {
	r := &Registry{lister: lister}
	r.SetDisallowed(disallowed)
	return r
}

// SetDisallowed replaces the disallow-list. Matching is exact on the
// full model name as the backend reports it.
func (r *Registry) SetDisallowed(names []string) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	r.mu.Lock()
	r.disallowed = set
	r.mu.Unlock()
}

// IsDisallowed reports whether a model name is filtered out.
func (r *Registry) IsDisallowed(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.disallowed[name]
	return ok
}

// ListAvailable returns the selectable models, sorted by name. A
// backend failure wraps ErrBackendUnavailable so callers can match it
// with errors.Is regardless of the transport detail underneath.
func (r *Registry) ListAvailable(ctx context.Context) ([]ollama.ModelInfo, error) {
	models, err := r.lister.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	out := make([]ollama.ModelInfo, 0, len(models))
	for _, m := range models {
		if r.IsDisallowed(m.Name) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Names is ListAvailable reduced to model names, for selectors that
// only need labels.
func (r *Registry) Names(ctx context.Context) ([]string, error) {
	models, err := r.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	return names, nil
}
