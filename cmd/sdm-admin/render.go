// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	stateStyles  = map[goal.State]lipgloss.Style{
		goal.StateSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		goal.StateFailure: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// nameColumnWidth is the fixed width of the goal-name column. Names
// longer than this are truncated with an ellipsis rather than pushing
// the state column out of alignment.
const nameColumnWidth = 32

// renderGoalSets renders one heading line per goal set (repo, branch,
// SHA, derived state) followed by an indented line per goal, plus a
// syntax-highlighted command snippet for any goal whose Data carries
// one. No bubbles/table component backs this: nothing in this core's
// reference corpus uses one, so the columns are hand-aligned with
// lipgloss styling instead.
func renderGoalSets(sets []goal.Set) string {
	if len(sets) == 0 {
		return dimStyle.Render("no pending goal sets") + "\n"
	}

	var b strings.Builder
	for _, set := range sets {
		state := set.Derive()
		fmt.Fprintf(&b, "%s  %s\n",
			headingStyle.Render(set.Repo.String()+"@"+set.Branch.String()),
			styleState(state).Render(string(state)),
		)
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render(set.GoalSetID.String()+" "+set.SHA.String()))
		for _, g := range set.Goals {
			name := ansi.Truncate(g.UniqueName.String(), nameColumnWidth, "…")
			fmt.Fprintf(&b, "    %-*s %s\n", nameColumnWidth, name, styleState(g.State).Render(string(g.State)))
			if command := goalCommand(g); command != "" {
				fmt.Fprintf(&b, "      %s\n", indentLines(highlightCommand(command), "      "))
			}
		}
	}
	return b.String()
}

func styleState(state goal.State) lipgloss.Style {
	if style, ok := stateStyles[state]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// goalCommand extracts the "command" parameter from a goal's
// free-form Data field, the same relaxed flat-string-object parsing
// cmd/sdm-core/worker.go's parseData applies (duplicated locally
// since the dispatcher's version is unexported). Returns "" if Data
// is empty, malformed, or has no "command" key.
func goalCommand(g goal.Event) string {
	if g.Data == "" {
		return ""
	}
	var params map[string]string
	if err := json.Unmarshal([]byte(g.Data), &params); err != nil {
		return ""
	}
	return params["command"]
}

// highlightCommand syntax-highlights a shell command for terminal
// display, using the same library, call, and formatter/style pair as
// lib/ticketui's markdown renderer's highlightCode helper
// (chroma/v2/quick.Highlight(..., "terminal256", "monokai")), falling
// back to dim plain text rather than failing the render when chroma
// doesn't recognize the lexer.
func highlightCommand(command string) string {
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, command, "bash", "terminal256", "monokai"); err != nil {
		return dimStyle.Render(command)
	}
	return strings.TrimRight(buffer.String(), "\n")
}

// indentLines prefixes every line after the first with prefix, so a
// multi-line highlighted command stays aligned under its goal's
// indentation instead of snapping back to column zero.
func indentLines(text, prefix string) string {
	return strings.Join(strings.Split(text, "\n"), "\n"+prefix)
}
