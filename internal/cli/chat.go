// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"

	"github.com/ollachat/ollachat/internal/config"
	"github.com/ollachat/ollachat/internal/history"
	"github.com/ollachat/ollachat/internal/model"
	"github.com/ollachat/ollachat/internal/ollama"
	"github.com/ollachat/ollachat/internal/registry"
	"github.com/ollachat/ollachat/internal/speech"
	"github.com/ollachat/ollachat/internal/turn"
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// ChatCLI wraps liner with persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line editor and loads prior input history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile := filepath.Join(config.Dir(), "input_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	return &ChatCLI{line: line, historyFile: historyFile}
}

// ReadInput prompts for one line and records it in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves input history and restores the terminal.
func (c *ChatCLI) Close() {
	if err := config.EnsureDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// chatSession bundles the state the REPL threads through its handlers.
type chatSession struct {
	cfg        *config.Config
	client     *ollama.Client
	reg        *registry.Registry
	store      *history.Store
	controller *turn.Controller
	speaker    *speech.Speaker
	session    *model.Session
	modelName  string
}

// HandleChat runs the interactive line-mode chat.
func HandleChat(args *ArgParser) int {
	cfg, client, err := loadConfigAndClient()
	if err != nil {
		return fail(err)
	}

	ctx := context.Background()
	if cfg.Ollama.AutoStart {
		if err := client.EnsureRunning(ctx); err != nil {
			return fail(err)
		}
	} else if err := client.CheckRunning(ctx); err != nil {
		return fail(err)
	}

	store, err := loadStore(cfg)
	if err != nil {
		return fail(err)
	}

	reg := newRegistry(cfg, client)

	cs := &chatSession{
		cfg:        cfg,
		client:     client,
		reg:        reg,
		store:      store,
		controller: turn.NewController(client, store, cfg.History.WindowSize),
		speaker:    speech.NewSpeaker(cfg.Speech.Engine),
	}

	if cs.modelName = args.Flag("model"); cs.modelName == "" {
		cs.modelName = cfg.Ollama.DefaultModel
	}
	if cs.modelName == "" {
		names, err := reg.Names(ctx)
		if err != nil || len(names) == 0 {
			fmt.Fprintln(os.Stderr, errorStyle.Render("✗ no models available"))
			return 1
		}
		cs.modelName = names[0]
	}
	if reg.IsDisallowed(cs.modelName) {
		fmt.Fprintf(os.Stderr, "%s model %q is disallowed by configuration\n", errorStyle.Render("✗"), cs.modelName)
		return 1
	}

	sessionID := args.Flag("session")
	if sessionID == "" {
		sessionID = model.DefaultSessionID
	}
	if err := cs.openSession(sessionID); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ ")+err.Error())
		return 1
	}

	return cs.repl()
}

// openSession loads an existing session or creates it.
func (cs *chatSession) openSession(id string) error {
	sess, err := cs.store.Get(id)
	if errors.Is(err, history.ErrSessionNotFound) {
		sess = model.NewSession(id, cs.modelName)
		err = cs.store.Create(sess)
	}
	if err != nil {
		return err
	}
	cs.session = sess
	return nil
}

// repl is the main read-eval loop.
func (cs *chatSession) repl() int {
	cli := NewChatCLI()
	defer cli.Close()

	cs.printWelcome()

	for {
		input, err := cli.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println(mutedStyle.Render("bye"))
				return 0
			}
			// EOF or terminal error.
			fmt.Println()
			return 0
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := cs.handleSlashCommand(input); quit {
				return 0
			}
			continue
		}

		cs.processMessage(input)
	}
}

// processMessage runs one turn, streaming the reply to stdout. Ctrl+C
// during the stream cancels it, keeping the partial answer.
func (cs *chatSession) processMessage(input string) {
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

	fmt.Println()
	result, err := cs.controller.Run(ctx, cs.session, cs.modelName, input, func(chunk string) {
		fmt.Print(chunk)
	})
	fmt.Println()

	if err != nil {
		switch {
		case errors.Is(err, turn.ErrStreamInterrupted):
			fmt.Println(warnStyle.Render("! response interrupted; partial answer kept"))
		case errors.Is(err, turn.ErrTurnInFlight):
			fmt.Println(warnStyle.Render("! a response is already streaming"))
		default:
			fmt.Println(errorStyle.Render("✗ ") + err.Error())
		}
		return
	}

	if cs.cfg.UI.ShowStats && result.Stats != nil {
		if line := result.Stats.Format(); line != "" {
			fmt.Println(mutedStyle.Render(line))
		}
	}
	fmt.Println()
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches one /command. Returns true to quit.
func (cs *chatSession) handleSlashCommand(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	arg := strings.Join(parts[1:], " ")

	switch cmd {
	case "/help":
		cs.printHelp()

	case "/quit", "/exit":
		fmt.Println(mutedStyle.Render("bye"))
		return true

	case "/models":
		names, err := cs.reg.Names(context.Background())
		if err != nil {
			fmt.Println(errorStyle.Render("✗ ") + err.Error())
			return false
		}
		for _, n := range names {
			marker := "  "
			if n == cs.modelName {
				marker = labelStyle.Render("* ")
			}
			fmt.Println(marker + n)
		}

	case "/model":
		if arg == "" {
			fmt.Println(labelStyle.Render("model: ") + cs.modelName)
			return false
		}
		if cs.reg.IsDisallowed(arg) {
			fmt.Printf("%s model %q is disallowed by configuration\n", errorStyle.Render("✗"), arg)
			return false
		}
		cs.modelName = arg
		fmt.Println(labelStyle.Render("model: ") + cs.modelName)

	case "/sessions":
		for _, s := range cs.store.Search(arg) {
			marker := "  "
			if s.ID == cs.session.ID {
				marker = labelStyle.Render("* ")
			}
			fmt.Printf("%s%-24s %s %s\n", marker, s.ID,
				mutedStyle.Render(s.CreatedAt.Format("2006-01-02")),
				mutedStyle.Render(s.Title()))
		}

	case "/open", "/new":
		if arg == "" {
			fmt.Println(errorStyle.Render("✗ usage: " + cmd + " <name>"))
			return false
		}
		if err := cs.openSession(arg); err != nil {
			fmt.Println(errorStyle.Render("✗ ") + err.Error())
			return false
		}
		fmt.Println(labelStyle.Render("session: ") + cs.session.ID)

	case "/delete":
		if arg == "" {
			fmt.Println(errorStyle.Render("✗ usage: /delete <name>"))
			return false
		}
		if arg == cs.session.ID {
			fmt.Println(errorStyle.Render("✗ cannot delete the active session"))
			return false
		}
		if err := cs.store.Delete(arg); err != nil {
			fmt.Println(errorStyle.Render("✗ ") + err.Error())
			return false
		}
		fmt.Println(mutedStyle.Render("deleted " + arg))

	case "/clear":
		cs.session.Messages = cs.session.Messages[:0]
		cs.session.AddMessage(model.NewSystemMessage(
			fmt.Sprintf("You are a helpful assistant running inside ollachat, a terminal chat client. Your model name is %s. Answer concisely.", cs.modelName)))
		if err := cs.store.Put(cs.session); err != nil {
			fmt.Println(errorStyle.Render("✗ ") + err.Error())
			return false
		}
		fmt.Println(mutedStyle.Render("transcript cleared"))

	case "/copy":
		text := cs.lastAssistantText()
		if text == "" {
			fmt.Println(mutedStyle.Render("nothing to copy"))
			return false
		}
		if err := clipboard.WriteAll(text); err != nil {
			fmt.Println(warnStyle.Render("! clipboard unavailable: " + err.Error()))
			return false
		}
		fmt.Println(mutedStyle.Render("copied to clipboard"))

	case "/speak":
		if !cs.cfg.Speech.Enabled {
			fmt.Println(mutedStyle.Render("speech is disabled in config"))
			return false
		}
		text := cs.lastAssistantText()
		if text == "" {
			fmt.Println(mutedStyle.Render("nothing to speak"))
			return false
		}
		if err := cs.speaker.Speak(text); err != nil {
			fmt.Println(warnStyle.Render("! " + err.Error()))
		}

	case "/last":
		if text := cs.lastAssistantText(); text != "" {
			displayResponse(text)
			fmt.Println()
		}

	default:
		fmt.Println(errorStyle.Render("✗ unknown command " + cmd + "; try /help"))
	}
	return false
}

func (cs *chatSession) lastAssistantText() string {
	for i := len(cs.session.Messages) - 1; i >= 0; i-- {
		if cs.session.Messages[i].Role == model.RoleAssistant {
			return cs.session.Messages[i].Content
		}
	}
	return ""
}

func (cs *chatSession) printWelcome() {
	fmt.Println(headingStyle.Render("ollachat") + mutedStyle.Render(" · "+cs.session.ID+" · "+cs.modelName))
	fmt.Println(mutedStyle.Render("type a message, or /help for commands"))
	fmt.Println()
}

func (cs *chatSession) printHelp() {
	help := [][2]string{
		{"/model [name]", "show or switch the model"},
		{"/models", "list selectable models"},
		{"/sessions [query]", "list or search sessions"},
		{"/open <name>", "open or create a session"},
		{"/new <name>", "same as /open"},
		{"/delete <name>", "delete a session"},
		{"/clear", "clear the current transcript"},
		{"/copy", "copy the last reply to the clipboard"},
		{"/speak", "speak the last reply aloud"},
		{"/last", "reprint the last reply, rendered"},
		{"/quit", "exit"},
	}
	for _, h := range help {
		fmt.Printf("  %s %s\n", labelStyle.Render(fmt.Sprintf("%-18s", h[0])), mutedStyle.Render(h[1]))
	}
}
