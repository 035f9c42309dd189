// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package chatadmin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/atomist-sdm/sdmcore/lib/bus"
)

// Serve subscribes to KindChatCommand and answers every command
// addressed to svc.Self by publishing a correlated
// KindChatCommandResult, until ctx is done. Run it in its own
// goroutine; it blocks for the lifetime of ctx.
func Serve(ctx context.Context, eventBus bus.EventBus, svc *CancelService, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	commands, err := eventBus.Subscribe(ctx, KindChatCommand)
	if err != nil {
		return fmt.Errorf("chatadmin: subscribing for commands: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-commands:
			if !ok {
				return nil
			}
			handleOne(ctx, eventBus, svc, env, logger)
		}
	}
}

func handleOne(ctx context.Context, eventBus bus.EventBus, svc *CancelService, env bus.Envelope, logger *slog.Logger) {
	var cmd Command
	if err := json.Unmarshal(env.Payload, &cmd); err != nil {
		logger.Error("chatadmin: decoding command", "error", err)
		return
	}
	if cmd.Self != svc.Self {
		return
	}

	result := Result{RequestID: cmd.RequestID, Status: "success"}
	if err := dispatchCommand(ctx, svc, cmd, &result); err != nil {
		result.Status = "error"
		result.Error = err.Error()
	}

	if _, err := eventBus.Publish(ctx, KindChatCommandResult, result); err != nil {
		logger.Error("chatadmin: publishing command result", "request_id", cmd.RequestID, "error", err)
	}
}

func dispatchCommand(ctx context.Context, svc *CancelService, cmd Command, result *Result) error {
	switch cmd.Name {
	case CommandListGoalSets:
		sets, err := svc.List(ctx)
		if err != nil {
			return err
		}
		result.GoalSets = sets
		return nil
	case CommandCancelGoalSet:
		sets, err := svc.List(ctx)
		if err != nil {
			return err
		}
		for _, set := range sets {
			if set.GoalSetID == cmd.GoalSetID {
				return svc.Cancel(ctx, set)
			}
		}
		return fmt.Errorf("chatadmin: no pending goal set %s", cmd.GoalSetID)
	case CommandCancelAllGoalSets:
		return svc.CancelAll(ctx)
	default:
		return fmt.Errorf("chatadmin: unrecognized command %q", cmd.Name)
	}
}
