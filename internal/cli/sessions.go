// Copyright (c) 2025 Ollachat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
)

// HandleSessions manages stored chat sessions:
//
//	ollachat sessions                 list all sessions
//	ollachat sessions list [query]    list, optionally filtered
//	ollachat sessions delete <name>   delete a session
//	ollachat sessions rename <old> <new>
//	ollachat sessions export <name>   print one session as markdown
//	ollachat sessions export <name> --json
func HandleSessions(args *ArgParser) int {
	cfg, _, err := loadConfigAndClient()
	if err != nil {
		return fail(err)
	}
	store, err := loadStore(cfg)
	if err != nil {
		return fail(err)
	}

	switch args.Subcommand() {
	case "", "list":
		sessions := store.Search(args.Positional(1))
		if len(sessions) == 0 {
			fmt.Println(mutedStyle.Render("no sessions"))
			return 0
		}
		for _, s := range sessions {
			fmt.Printf("%-24s %s  %3d msgs  %s\n",
				s.ID,
				mutedStyle.Render(s.CreatedAt.Format("2006-01-02 15:04")),
				len(s.Messages),
				mutedStyle.Render(s.Title()))
		}
		return 0

	case "delete":
		name := args.Positional(1)
		if name == "" {
			return fail(errors.New("usage: ollachat sessions delete <name>"))
		}
		if err := store.Delete(name); err != nil {
			return fail(err)
		}
		fmt.Println(mutedStyle.Render("deleted " + name))
		return 0

	case "rename":
		oldID, newID := args.Positional(1), args.Positional(2)
		if oldID == "" || newID == "" {
			return fail(errors.New("usage: ollachat sessions rename <old> <new>"))
		}
		if err := store.Rename(oldID, newID); err != nil {
			return fail(err)
		}
		fmt.Println(mutedStyle.Render("renamed " + oldID + " -> " + newID))
		return 0

	case "export":
		name := args.Positional(1)
		if name == "" {
			return fail(errors.New("usage: ollachat sessions export <name>"))
		}
		var out string
		if args.BoolFlag("json") {
			out, err = store.ExportJSON(name)
		} else {
			out, err = store.ExportMarkdown(name)
		}
		if err != nil {
			return fail(err)
		}
		fmt.Println(out)
		return 0

	default:
		return fail(fmt.Errorf("unknown sessions subcommand %q", args.Subcommand()))
	}
}
