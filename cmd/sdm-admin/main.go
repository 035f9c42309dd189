// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Sdm-admin is the interactive and scriptable front end for the chat
// admin cancellation surface: list pending goal sets, cancel one or
// all of them, or watch them live in a terminal dashboard. Every
// subcommand talks to the same event bus a sdm-core master listens
// on, via the chatadmin request/response protocol — this binary
// never touches the ledger, the planner, or a goal's fulfillment
// directly.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Root().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Root builds the top-level command tree.
func Root() *Command {
	return &Command{
		Name:    "sdm-admin",
		Summary: "Inspect and cancel goal sets",
		Description: `sdm-admin talks to a running sdm-core master over its event bus to
list pending goal sets, cancel one or all of them, and watch goal
sets advance live.

Every subcommand requires --config (or $SDMCORE_CONFIG) pointing at
the same configuration file the master process uses, so it connects
to the same bus and identifies the same registration.`,
		Subcommands: []*Command{
			listCommand(),
			cancelCommand(),
			cancelAllCommand(),
			watchCommand(),
		},
	}
}
