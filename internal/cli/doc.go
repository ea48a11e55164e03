// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI command surfaces: the line-based
// chat REPL, one-shot ask, and the models and sessions subcommands.
// Output is styled only when stdout is a terminal.
package cli
