// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Command is a small command tree: a name, a summary line for help
// listings, an optional flag set, child subcommands, and a Run
// function. It is sized to this binary's handful of commands rather
// than a general-purpose CLI framework.
type Command struct {
	Name        string
	Summary     string
	Description string
	Flags       func() *pflag.FlagSet
	Subcommands []*Command
	Run         func(args []string) error

	parent *Command
}

// ExitCoder lets a Run error carry a specific process exit code
// instead of the default 1.
type ExitCoder interface {
	ExitCode() int
}

// Execute dispatches args to the matching subcommand, or to this
// command's own Run if args names no subcommand.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		c.PrintHelp(os.Stdout)
		return nil
	}

	if len(args) > 0 {
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.Execute(args[1:])
			}
		}
		if len(c.Subcommands) > 0 {
			return fmt.Errorf("%s: unknown command %q%s", c.fullName(), args[0], suggest(args[0], c.Subcommands))
		}
	}

	if c.Run == nil {
		c.PrintHelp(os.Stdout)
		return nil
	}

	var flags *pflag.FlagSet
	if c.Flags != nil {
		flags = c.Flags()
		if err := flags.Parse(args); err != nil {
			return err
		}
		args = flags.Args()
	}
	return c.Run(args)
}

func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

// PrintHelp writes a short usage summary for c to w.
func (c *Command) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "%s - %s\n", c.fullName(), c.Summary)
	if c.Description != "" {
		fmt.Fprintf(w, "\n%s\n", c.Description)
	}
	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		for _, sub := range c.Subcommands {
			fmt.Fprintf(w, "  %-16s %s\n", sub.Name, sub.Summary)
		}
	}
	if c.Flags != nil {
		fmt.Fprintf(w, "\nFlags:\n%s", c.Flags().FlagUsages())
	}
}

// suggest offers a "did you mean" hint when name is close to one of
// candidates, otherwise returns an empty string.
func suggest(name string, candidates []*Command) string {
	for _, c := range candidates {
		if strings.HasPrefix(c.Name, name) || strings.HasPrefix(name, c.Name) {
			return fmt.Sprintf(" (did you mean %q?)", c.Name)
		}
	}
	return ""
}
