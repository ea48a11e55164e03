// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ollachat/ollachat/internal/model"
)

// ExportMarkdown renders one session as a Markdown transcript.
func (s *Store) ExportMarkdown(id string) (string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sess.ID)
	if sess.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", sess.Description)
	}
	fmt.Fprintf(&b, "Created: %s\n\n", sess.CreatedAt.Format("2006-01-02 15:04"))

	for _, m := range sess.Messages {
		if m.Role == model.RoleSystem {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", m.Role.DisplayName(), m.DisplayContent())
		if m.Incomplete {
			b.WriteString("*(response interrupted)*\n\n")
		}
	}
	return b.String(), nil
}

// ExportJSON renders one session as standalone indented JSON.
func (s *Store) ExportJSON(id string) (string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return "", err
	}

	out := struct {
		ID string `json:"id"`
		*model.Session
	}{ID: sess.ID, Session: sess}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", &StoreError{Op: "export", Message: "failed to encode session", Cause: err}
	}
	return string(data), nil
}
