// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Sdm-core is the goal-orchestration binary: one executable with two
// entrypoints sharing the same dispatcher core.
//
// In master mode (the default) it connects to the event bus, plans
// goal sets for incoming pushes, dispatches requested goals, advances
// the precondition graph as goals complete, and serves the chat admin
// cancellation surface.
//
// In worker mode, entered when ATOMIST_ISOLATED_GOAL=true is set in
// its environment, it fetches the exact goal event it was launched to
// fulfill, runs it, reports the terminal result, and exits. A worker
// never plans, dispatches to other goals, or serves chat admin
// commands — it is a single re-entrant leaf.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/atomist-sdm/sdmcore/lib/process"
	"github.com/atomist-sdm/sdmcore/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to sdm-core.yaml config file (defaults to $SDMCORE_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if os.Getenv("ATOMIST_ISOLATED_GOAL") == "true" {
		return runWorker(ctx, logger)
	}
	return runMaster(ctx, configPath, logger)
}
