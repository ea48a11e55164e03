// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/ollachat/ollachat/internal/ollama"
)

type fakeLister struct {
	models []ollama.ModelInfo
	err    error
}

func (f *fakeLister) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return f.models, f.err
}

func modelNames(models []ollama.ModelInfo) []string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name
	}
	return names
}

func TestListAvailableFiltersDisallowed(t *testing.T) {
	lister := &fakeLister{models: []ollama.ModelInfo{
		{Name: "m1"}, {Name: "embed-v1"}, {Name: "m2"},
	}}
	r := New(lister, []string{"embed-v1"})

	got, err := r.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable failed: %v", err)
	}

	names := modelNames(got)
	if len(names) != 2 || names[0] != "m1" || names[1] != "m2" {
		t.Errorf("names = %v, want [m1 m2]", names)
	}
}

func TestListAvailableExactMatchOnly(t *testing.T) {
	lister := &fakeLister{models: []ollama.ModelInfo{
		{Name: "llama3:8b"}, {Name: "llama3:70b"},
	}}
	r := New(lister, []string{"llama3:8b"})

	got, err := r.ListAvailable(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "llama3:70b" {
		t.Errorf("got %v, want only llama3:70b", modelNames(got))
	}
}

func TestListAvailableBackendDown(t *testing.T) {
	lister := &fakeLister{err: ollama.ErrNotRunning}
	r := New(lister, nil)

	_, err := r.ListAvailable(context.Background())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
	// The transport detail stays reachable underneath.
	if !ollama.IsNotRunning(err) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestSetDisallowedTakesEffect(t *testing.T) {
	lister := &fakeLister{models: []ollama.ModelInfo{{Name: "m1"}, {Name: "m2"}}}
	r := New(lister, nil)

	got, _ := r.Names(context.Background())
	if len(got) != 2 {
		t.Fatalf("names = %v, want both models", got)
	}

	r.SetDisallowed([]string{"m2"})
	got, _ = r.Names(context.Background())
	if len(got) != 1 || got[0] != "m1" {
		t.Errorf("names after update = %v, want [m1]", got)
	}
}

func TestListAvailableSortsByName(t *testing.T) {
	lister := &fakeLister{models: []ollama.ModelInfo{
		{Name: "zephyr"}, {Name: "alfred"}, {Name: "mistral"},
	}}
	r := New(lister, nil)

	got, _ := r.Names(context.Background())
	want := []string{"alfred", "mistral", "zephyr"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names = %v, want %v", got, want)
			break
		}
	}
}
