// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package ollama

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// findOllamaExecutable locates the ollama binary via PATH, then the
// usual install locations.
func findOllamaExecutable() (string, error) {
	if path, err := exec.LookPath("ollama"); err == nil {
		return path, nil
	}

	candidates := []string{
		"/usr/local/bin/ollama",
		"/usr/bin/ollama",
		"/opt/homebrew/bin/ollama",
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", &ClientError{
		Type:    ErrorTypeNotRunning,
		Message: "ollama executable not found; install it from https://ollama.com",
	}
}

// startServer launches "ollama serve" detached from this process and
// polls until the server answers or the wait budget runs out.
func (c *Client) startServer(ctx context.Context) error {
	path, err := findOllamaExecutable()
	if err != nil {
		return err
	}

	cmd := exec.Command(path, "serve")
	// Own process group so the server outlives this client.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return &ClientError{Type: ErrorTypeNotRunning, Message: "failed to start ollama", Cause: err}
	}
	if err := cmd.Process.Release(); err != nil {
		return &ClientError{Type: ErrorTypeNotRunning, Message: "failed to detach ollama", Cause: err}
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
		if err := c.CheckRunning(ctx); err == nil {
			return nil
		}
	}

	return &ClientError{Type: ErrorTypeNotRunning, Message: "ollama did not become ready in time"}
}
