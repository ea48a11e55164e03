// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	debugOnce   sync.Once
	debugLogger *log.Logger
)

// Debugf writes a diagnostic line when OLLACHAT_DEBUG is set. The log
// goes to a file, never the terminal, which the TUI owns.
func Debugf(format string, args ...interface{}) {
	debugOnce.Do(initDebugLogger)
	if debugLogger != nil {
		debugLogger.Printf(format, args...)
	}
}

func initDebugLogger() {
	target := os.Getenv("OLLACHAT_DEBUG")
	if target == "" {
		return
	}
	if target == "1" || target == "true" {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		target = filepath.Join(home, ".ollachat", "debug.log")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	debugLogger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
}
