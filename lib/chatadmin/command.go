// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package chatadmin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/bus"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// KindChatCommand and KindChatCommandResult are the bus event kinds
// this package publishes and subscribes to. They are local to chat
// admin and carry no meaning to the rest of the bus's consumers.
const (
	KindChatCommand       bus.EventKind = "ChatCommand"
	KindChatCommandResult bus.EventKind = "ChatCommandResult"
)

// Command names recognized by Serve.
const (
	CommandListGoalSets      = "list_goal_sets"
	CommandCancelGoalSet     = "cancel_goal_set"
	CommandCancelAllGoalSets = "cancel_all_goal_sets"
)

// Command is a chat admin request published as a KindChatCommand
// event.
type Command struct {
	Name      string
	Self      ref.RegistrationName
	GoalSetID ref.GoalSetID // only for CommandCancelGoalSet
	RequestID string
}

// Result is the reply to a Command, published as a
// KindChatCommandResult event carrying the same RequestID.
type Result struct {
	RequestID string
	Status    string // "success" or "error"
	Error     string
	GoalSets  []goal.Set // populated for CommandListGoalSets
}

// Future represents an in-flight Command whose Result will arrive
// asynchronously over the bus. Create one with Send.
type Future struct {
	results   <-chan bus.Envelope
	requestID string
}

// Send captures the result subscription BEFORE publishing the
// command, preventing a race where the master process answers before
// the watcher is listening.
func Send(ctx context.Context, eventBus bus.EventBus, cmd Command) (*Future, error) {
	if cmd.RequestID == "" {
		requestID, err := generateRequestID()
		if err != nil {
			return nil, fmt.Errorf("chatadmin: generating request id: %w", err)
		}
		cmd.RequestID = requestID
	}

	results, err := eventBus.Subscribe(ctx, KindChatCommandResult)
	if err != nil {
		return nil, fmt.Errorf("chatadmin: subscribing for command result: %w", err)
	}

	if _, err := eventBus.Publish(ctx, KindChatCommand, cmd); err != nil {
		return nil, fmt.Errorf("chatadmin: publishing %s command: %w", cmd.Name, err)
	}

	return &Future{results: results, requestID: cmd.RequestID}, nil
}

// Wait blocks until the result matching this future's request ID
// arrives, or ctx is done.
func (f *Future) Wait(ctx context.Context) (*Result, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case env, ok := <-f.results:
			if !ok {
				return nil, fmt.Errorf("chatadmin: result stream closed before request %s answered", f.requestID)
			}
			var result Result
			if err := json.Unmarshal(env.Payload, &result); err != nil {
				return nil, fmt.Errorf("chatadmin: decoding command result: %w", err)
			}
			if result.RequestID != f.requestID {
				continue
			}
			return &result, nil
		}
	}
}

// Execute sends cmd and waits for its single result.
func Execute(ctx context.Context, eventBus bus.EventBus, cmd Command) (*Result, error) {
	future, err := Send(ctx, eventBus, cmd)
	if err != nil {
		return nil, err
	}
	return future.Wait(ctx)
}

// generateRequestID creates a random 16-byte hex string correlating a
// Command with its Result.
func generateRequestID() (string, error) {
	var buffer [16]byte
	if _, err := rand.Read(buffer[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer[:]), nil
}
