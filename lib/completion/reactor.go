// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atomist-sdm/sdmcore/lib/dispatch"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// Invocation bundles the arguments a Listener receives: the completed
// goal, every goal in its set, and the credentials/channels a
// listener needs to report back.
type Invocation struct {
	CompletedGoal goal.Event
	AllGoals      []goal.Event
	Credentials   dispatch.Credentials
	Channels      dispatch.AddressableChannels
}

// Listener reacts to a completed goal. Handle's error is logged by
// the reactor and does not stop the remaining listeners from running.
type Listener struct {
	Name   string
	Handle func(ctx context.Context, inv Invocation) error
}

// PublishStatusFunc publishes the coarse external status for a goal
// set, linking to url when set (the completed goal's progress log, on
// failure).
type PublishStatusFunc func(ctx context.Context, goalSetID ref.GoalSetID, status goal.ExternalStatus, url string) error

// Reactor runs the completion pipeline for one SDM registration.
type Reactor struct {
	Self ref.RegistrationName

	// FetchSet re-fetches the authoritative goal set for the completed
	// goal's GoalSetID.
	FetchSet func(ctx context.Context, id ref.GoalSetID) (goal.Set, error)

	// Credentials supplies the credentials passed to every listener
	// invocation for this completed goal.
	Credentials func(ctx context.Context, completed goal.Event) (dispatch.Credentials, error)

	// Channels resolves where a failure or success summary for this
	// goal set should be addressed.
	Channels func(ctx context.Context, completed goal.Event) (dispatch.AddressableChannels, error)

	Listeners     []Listener
	PublishStatus PublishStatusFunc

	Logger *slog.Logger
}

func (r *Reactor) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// React runs the full completion pipeline for one completed goal
// event.
func (r *Reactor) React(ctx context.Context, completed goal.Event) error {
	if !completed.Relevant(r.Self) {
		return nil
	}

	set, err := r.FetchSet(ctx, completed.GoalSetID)
	if err != nil {
		return fmt.Errorf("completion: fetching goal set %s: %w", completed.GoalSetID, err)
	}

	inv := Invocation{CompletedGoal: completed, AllGoals: set.Goals}
	if r.Credentials != nil {
		if inv.Credentials, err = r.Credentials(ctx, completed); err != nil {
			return fmt.Errorf("completion: resolving credentials for %s: %w", completed.Key(), err)
		}
	}
	if r.Channels != nil {
		if inv.Channels, err = r.Channels(ctx, completed); err != nil {
			return fmt.Errorf("completion: resolving channels for %s: %w", completed.Key(), err)
		}
	}

	// Errors from individual listeners are logged but do not stop the
	// remaining listeners from running — one listener's failure must
	// not block another's report.
	for _, listener := range r.Listeners {
		if listener.Handle == nil {
			continue
		}
		if err := listener.Handle(ctx, inv); err != nil {
			r.logger().Error("completion: listener failed", "listener", listener.Name, "goal", completed.Key(), "error", err)
		}
	}

	if r.PublishStatus == nil {
		return nil
	}

	if completed.State.External() == goal.ExternalFailure {
		return r.PublishStatus(ctx, completed.GoalSetID, goal.ExternalFailure, completed.URL)
	}
	if set.AllTerminal() && set.Derive() == goal.StateSuccess {
		return r.PublishStatus(ctx, completed.GoalSetID, goal.ExternalSuccess, "")
	}
	return nil
}
