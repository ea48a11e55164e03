// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history persists chat sessions to a single JSON file, shaped
// as a mapping from session id to session. Reads fail soft: an absent
// file is an empty store, a corrupt file surfaces ErrCorruptHistory
// once and the app continues with a fresh transcript. Writes always
// rewrite the whole document through an atomic temp-and-rename so a
// crash never truncates history.
package history
