// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package turn runs one chat exchange at a time: persist the user
// message, stream the assistant reply through a per-chunk callback,
// finalize and persist. Interrupted streams keep their partial content,
// flagged incomplete. While a turn is streaming the controller rejects
// new submissions, so transcripts cannot interleave.
package turn
