// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalstate

import (
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// permitted is the table of legal (from, to) state transitions. A
// transition not listed here is rejected by CheckTransition.
var permitted = map[goal.State][]goal.State{
	goal.StatePlanned: {
		goal.StateRequested,
		goal.StateWaitingForPreApproval,
		goal.StateSkipped,
	},
	goal.StateWaitingForPreApproval: {goal.StatePreApproved},
	goal.StatePreApproved:           {goal.StateRequested},
	goal.StateRequested:             {goal.StateInProcess},
	goal.StateInProcess: {
		goal.StateSuccess,
		goal.StateFailure,
		goal.StateWaitingForApproval,
		goal.StateStopped,
	},
	goal.StateWaitingForApproval: {goal.StateApproved},
	goal.StateApproved: {
		goal.StateSuccess,
		goal.StateFailure,
	},
	// failure -> requested is permitted only when the goal declares
	// RetryFeasible; CheckTransition enforces that separately since
	// it depends on the goal definition, not just the state pair.
	goal.StateFailure: {goal.StateRequested},
}

// CheckTransition reports whether moving a goal from `from` to `to`
// is permitted. retryFeasible must be true to allow failure ->
// requested; it is ignored for every other pair. Any non-terminal
// state may move to canceled unconditionally.
func CheckTransition(from, to goal.State, retryFeasible bool) error {
	if to == goal.StateCanceled {
		if from.IsTerminal() {
			return fmt.Errorf("cannot cancel goal already in terminal state %q", from)
		}
		return nil
	}

	if from == goal.StateFailure && to == goal.StateRequested {
		if !retryFeasible {
			return fmt.Errorf("goal in state failure is not retryFeasible, cannot move to requested")
		}
		return nil
	}

	for _, candidate := range permitted[from] {
		if candidate == to {
			return nil
		}
	}
	return fmt.Errorf("illegal transition %q -> %q", from, to)
}

// Apply validates and applies a transition to a copy of e, returning
// the updated event. The caller is responsible for persisting it and
// bumping TS/Version through the event bus.
func Apply(e goal.Event, to goal.State) (goal.Event, error) {
	if err := CheckTransition(e.State, to, e.RetryFeasible); err != nil {
		return goal.Event{}, fmt.Errorf("goal %s: %w", e.Key(), err)
	}
	updated := e
	updated.State = to
	updated.Version++
	return updated, nil
}
