// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the chat data model: roles, messages with a
// streaming accumulator, and named sessions with window and trim
// policies. It carries no I/O; persistence lives in internal/history
// and transport in internal/ollama.
package model
