// ollachat - a terminal chat interface for local Ollama models.
//
// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ollachat/ollachat/internal/cli"
	"github.com/ollachat/ollachat/internal/config"
	"github.com/ollachat/ollachat/internal/history"
	"github.com/ollachat/ollachat/internal/model"
	"github.com/ollachat/ollachat/internal/ollama"
	"github.com/ollachat/ollachat/internal/registry"
	"github.com/ollachat/ollachat/internal/speech"
	"github.com/ollachat/ollachat/internal/turn"
	"github.com/ollachat/ollachat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "chat":
			os.Exit(cli.HandleChat(cli.NewArgParser(os.Args[2:])))
		case "ask":
			os.Exit(cli.HandleAsk(cli.NewArgParser(os.Args[2:])))
		case "models":
			os.Exit(cli.HandleModels(cli.NewArgParser(os.Args[2:])))
		case "sessions":
			os.Exit(cli.HandleSessions(cli.NewArgParser(os.Args[2:])))
		case "version", "--version", "-v":
			fmt.Printf("ollachat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
			os.Exit(0)
		case "help", "--help", "-h":
			printUsage()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	os.Exit(runTUI(cli.NewArgParser(os.Args[1:])))
}

// runTUI assembles the full-screen interface. All fallible setup
// happens before the terminal enters the alternate screen so errors
// print normally.
func runTUI(args *cli.ArgParser) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	_ = config.EnsureDir()

	client := ollama.NewClientWithConfig(ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		Timeout:      cfg.Timeout(),
		DefaultModel: cfg.Ollama.DefaultModel,
	})
	ctx := context.Background()
	if cfg.Ollama.AutoStart {
		// Best effort. An unreachable server degrades to a disabled
		// model selector rather than blocking startup.
		_ = client.EnsureRunning(ctx)
	}

	store := history.NewStore(cfg.HistoryPath())
	if err := store.Load(); err != nil {
		if !errors.Is(err, history.ErrCorruptHistory) {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		fmt.Fprintln(os.Stderr, "warning: history file is corrupt; starting with empty history")
	}

	reg := registry.New(client, cfg.Models.Disallowed)
	controller := turn.NewController(client, store, cfg.History.WindowSize)
	speaker := speech.NewSpeaker(cfg.Speech.Engine)

	sessionID := args.Flag("session")
	if sessionID == "" {
		sessionID = model.DefaultSessionID
	}
	sess, err := store.Get(sessionID)
	if errors.Is(err, history.ErrSessionNotFound) {
		sess = model.NewSession(sessionID, cfg.Ollama.DefaultModel)
		err = store.Create(sess)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	m := chat.New(cfg, reg, store, controller, speaker, sess)
	p := tea.NewProgram(m, tea.WithAltScreen())
	chat.SetProgram(p)

	// Live-reload the disallow list and UI settings on config edits.
	watcher, werr := config.NewWatcher(config.Path(), func(next *config.Config) {
		p.Send(chat.ConfigReloadedMsg{Config: next})
	})
	if werr == nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Print(`ollachat - chat with local Ollama models

Usage:
  ollachat [--session <name>]        launch the full-screen interface
  ollachat chat [flags]              line-based chat in the current terminal
  ollachat ask <question>            one-shot question, answer to stdout
  ollachat models [--all]            list available models
  ollachat sessions <subcommand>     list, delete, or export saved sessions
  ollachat version                   print version information

Chat flags:
  --model <name>     model to chat with (default from config)
  --session <name>   session to open or create (default "general")

Sessions subcommands:
  list [query]               list sessions, optionally filtered
  delete <name>              delete a session
  rename <old> <new>         rename a session
  export <name> [--json]     print a session as markdown or JSON

Configuration lives at ~/.ollachat/config.toml.
`)
}
