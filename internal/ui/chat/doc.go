// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the full-screen terminal chat view: a scrolling
// transcript viewport, a gated input line and a status bar, with a
// session picker overlay. Streaming replies arrive from the turn
// controller's goroutine as chunk messages and are batched into
// roughly 30 frames per second of viewport updates.
//
// While a response streams the view is in StateStreaming: the input is
// disabled and the transcript renders from a display cache instead of
// the live session, which the stream goroutine is still appending to.
package chat
