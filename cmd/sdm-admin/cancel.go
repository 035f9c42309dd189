// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/atomist-sdm/sdmcore/lib/chatadmin"
	"github.com/atomist-sdm/sdmcore/lib/ref"
)

func cancelCommand() *Command {
	return &Command{
		Name:    "cancel",
		Summary: "Cancel one pending goal set",
		Flags:   newConfigFlags,
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: sdm-admin cancel [--config PATH] GOAL_SET_ID")
			}
			goalSetID, err := ref.ParseGoalSetID(args[0])
			if err != nil {
				return fmt.Errorf("parsing goal set id %q: %w", args[0], err)
			}

			cfg, err := loadConfig(configPathFlag)
			if err != nil {
				return err
			}
			self, err := selfFromConfig(cfg)
			if err != nil {
				return err
			}
			eventBus, err := buildEventBus(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			result, err := chatadmin.Execute(ctx, eventBus, chatadmin.Command{
				Name:      chatadmin.CommandCancelGoalSet,
				Self:      self,
				GoalSetID: goalSetID,
			})
			if err != nil {
				return err
			}
			if result.Status == "error" {
				return fmt.Errorf("sdm-admin: %s", result.Error)
			}
			fmt.Fprintf(os.Stdout, "canceled %s\n", goalSetID.String())
			return nil
		},
	}
}

func cancelAllCommand() *Command {
	return &Command{
		Name:    "cancel-all",
		Summary: "Cancel every pending goal set",
		Flags:   newConfigFlags,
		Run: func(args []string) error {
			cfg, err := loadConfig(configPathFlag)
			if err != nil {
				return err
			}
			self, err := selfFromConfig(cfg)
			if err != nil {
				return err
			}
			eventBus, err := buildEventBus(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()

			result, err := chatadmin.Execute(ctx, eventBus, chatadmin.Command{
				Name: chatadmin.CommandCancelAllGoalSets,
				Self: self,
			})
			if err != nil {
				return err
			}
			if result.Status == "error" {
				return fmt.Errorf("sdm-admin: %s", result.Error)
			}
			fmt.Fprintln(os.Stdout, "canceled all pending goal sets")
			return nil
		},
	}
}
