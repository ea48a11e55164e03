// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeOverrides(t *testing.T) {
	dark := NewTheme("dark")
	if !dark.IsDark {
		t.Error("theme setting dark must force IsDark")
	}

	light := NewTheme("light")
	if light.IsDark {
		t.Error("theme setting light must force !IsDark")
	}
}

func TestNewThemeStylesInitialized(t *testing.T) {
	th := NewTheme("auto")
	// Spot check that initStyles ran; a zero style renders unstyled.
	if !th.UserLabel.GetBold() {
		t.Error("UserLabel should be bold")
	}
	if !th.Header.GetBold() {
		t.Error("Header should be bold")
	}
}
