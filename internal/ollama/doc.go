// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama is the HTTP client for a local Ollama server. It
// covers the three calls the application needs: listing installed
// models, non-streaming chat, and streaming chat where the response
// arrives as line-delimited JSON chunks.
//
// All failures surface as *ClientError values classified by ErrorType;
// match them with errors.Is against the exported sentinels
// (ErrNotRunning, ErrTimeout, ErrModelNotFound) or the IsX helpers.
// The client can also start a stopped local server (EnsureRunning),
// with the platform-specific process handling split across
// start_unix.go and start_windows.go.
package ollama
