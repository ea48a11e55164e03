// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/ollachat/ollachat/internal/ollama"
)

// HandleAsk answers one question without touching session history:
//
//	ollachat ask "why is the sky blue"
//	ollachat ask --model llama3:8b "explain goroutines"
//
// On a terminal the answer streams as it is generated and is then
// shown rendered; piped output is plain text.
func HandleAsk(args *ArgParser) int {
	question := strings.Join(args.PositionalFrom(0), " ")
	if question == "" {
		return fail(errors.New("usage: ollachat ask <question>"))
	}

	cfg, client, err := loadConfigAndClient()
	if err != nil {
		return fail(err)
	}

	modelName := args.Flag("model")
	if modelName == "" {
		modelName = cfg.Ollama.DefaultModel
	}
	reg := newRegistry(cfg, client)
	if modelName != "" && reg.IsDisallowed(modelName) {
		return fail(fmt.Errorf("model %q is disallowed by configuration", modelName))
	}
	if modelName == "" {
		names, err := reg.Names(context.Background())
		if err != nil || len(names) == 0 {
			return fail(errors.New("no models available"))
		}
		modelName = names[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	messages := []ollama.Message{ollama.NewUserMessage(question)}

	// Piped output: fetch the whole answer, print it plain.
	if !IsStdoutTTY() {
		resp, err := client.Chat(ctx, modelName, messages)
		if err != nil {
			return fail(err)
		}
		fmt.Println(resp.Message.Content)
		return 0
	}

	var answer strings.Builder
	err = client.ChatStream(ctx, modelName, messages, func(chunk ollama.StreamChunk) {
		if !chunk.Done {
			fmt.Print(chunk.Content)
			answer.WriteString(chunk.Content)
		}
	})
	fmt.Println()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println(warnStyle.Render("! interrupted"))
			return 1
		}
		return fail(err)
	}

	// Reprint rendered when the answer carries markdown structure.
	if strings.ContainsAny(answer.String(), "`*#") {
		fmt.Println()
		displayResponse(answer.String())
	}
	return 0
}
