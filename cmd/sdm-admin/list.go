// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/chatadmin"
	"github.com/spf13/pflag"
)

const commandTimeout = 10 * time.Second

var configPathFlag string

func newConfigFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("sdm-admin", pflag.ContinueOnError)
	fs.StringVar(&configPathFlag, "config", "", "path to sdm-core.yaml config file (defaults to $SDMCORE_CONFIG)")
	return fs
}

func listCommand() *Command {
	return &Command{
		Name:    "list",
		Summary: "List pending goal sets",
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
				Name: chatadmin.CommandListGoalSets,
				Self: self,
			})
			if err != nil {
				return err
			}
			if result.Status == "error" {
				return fmt.Errorf("sdm-admin: %s", result.Error)
			}
			fmt.Fprint(os.Stdout, renderGoalSets(result.GoalSets))
			return nil
		},
	}
}
