// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package ollama

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// findOllamaExecutable locates ollama.exe via PATH, then the default
// install locations.
func findOllamaExecutable() (string, error) {
	if path, err := exec.LookPath("ollama"); err == nil {
		return path, nil
	}

	var candidates []string
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		candidates = append(candidates,
			filepath.Join(localAppData, "Programs", "Ollama", "ollama.exe"))
	}
	if programFiles := os.Getenv("ProgramFiles"); programFiles != "" {
		candidates = append(candidates,
			filepath.Join(programFiles, "Ollama", "ollama.exe"))
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
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
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
