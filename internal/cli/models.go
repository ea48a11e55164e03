// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ollachat/ollachat/internal/ollama"
	"github.com/ollachat/ollachat/internal/registry"
)

// HandleModels lists the models available for chat, after disallow-list
// filtering. With --all the filtered-out names are shown too, marked.
func HandleModels(args *ArgParser) int {
	cfg, client, err := loadConfigAndClient()
	if err != nil {
		return fail(err)
	}
	reg := newRegistry(cfg, client)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	if args.BoolFlag("all") {
		models, err := client.ListModels(ctx)
		if err != nil {
			return fail(err)
		}
		printModels(models, reg)
		return 0
	}

	models, err := reg.ListAvailable(ctx)
	if err != nil {
		if errors.Is(err, registry.ErrBackendUnavailable) {
			return fail(errors.New("ollama unreachable; is it running?"))
		}
		return fail(err)
	}
	printModels(models, reg)
	return 0
}

func printModels(models []ollama.ModelInfo, reg *registry.Registry) {
	if len(models) == 0 {
		fmt.Println(mutedStyle.Render("no models installed"))
		return
	}
	for _, m := range models {
		line := fmt.Sprintf("%-32s %10s  %s",
			m.Name,
			ollama.FormatSize(m.Size),
			mutedStyle.Render(m.ModifiedAt.Format("2006-01-02")))
		if reg.IsDisallowed(m.Name) {
			line += " " + warnStyle.Render("(disallowed)")
		}
		fmt.Println(line)
	}
}
