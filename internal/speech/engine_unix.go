// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package speech

import (
	"os/exec"
	"runtime"
)

// platformCommand picks the first installed engine. macOS ships `say`;
// on Linux the common choices are espeak-ng, espeak and speech-dispatcher.
func platformCommand(text string) (*exec.Cmd, error) {
	var candidates []string
	if runtime.GOOS == "darwin" {
		candidates = []string{"say"}
	} else {
		candidates = []string{"espeak-ng", "espeak", "spd-say"}
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return exec.Command(path, text), nil
		}
	}
	return nil, ErrEngineNotFound
}
