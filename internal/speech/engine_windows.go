// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package speech

import (
	"fmt"
	"os/exec"
	"strings"
)

// platformCommand speaks through the built-in SAPI voice via
// PowerShell, which every supported Windows ships with.
func platformCommand(text string) (*exec.Cmd, error) {
	path, err := exec.LookPath("powershell")
	if err != nil {
		return nil, ErrEngineNotFound
	}

	// Single-quoted PowerShell string; embedded quotes double up.
	escaped := strings.ReplaceAll(text, "'", "''")
	script := fmt.Sprintf(
		"Add-Type -AssemblyName System.Speech; (New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak('%s')",
		escaped)
	return exec.Command(path, "-NoProfile", "-Command", script), nil
}
