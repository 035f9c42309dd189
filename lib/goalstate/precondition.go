// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalstate

import "github.com/atomist-sdm/sdmcore/lib/schema/goal"

// reevaluateFrom lists the states from which a goal's candidacy is
// re-evaluated when an upstream goal succeeds: planned, skipped, or
// failure with retryFeasible set.
func reevaluateFrom(g goal.Event) bool {
	switch g.State {
	case goal.StatePlanned, goal.StateSkipped:
		return true
	case goal.StateFailure:
		return g.RetryFeasible
	default:
		return false
	}
}

// preconditionsSatisfied reports whether every precondition of g is
// matched by a goal in state success within set (tie-break by
// (environment, uniqueName), i.e. by goal.Key equality).
func preconditionsSatisfied(g goal.Event, set goal.Set) bool {
	for _, pre := range g.PreConditions {
		upstream, found := set.Find(pre)
		if !found || upstream.State != goal.StateSuccess {
			return false
		}
	}
	return true
}

// Candidates returns the keys of goals in set whose preconditions are
// now fully satisfied and whose current state is eligible for
// re-evaluation. It does
// not mutate set or decide the target state — callers use NextState
// to determine whether a candidate advances to
// waiting_for_pre_approval or requested.
func Candidates(set goal.Set) []goal.Key {
	var out []goal.Key
	for _, g := range set.Goals {
		if !reevaluateFrom(g) {
			continue
		}
		if preconditionsSatisfied(g, set) {
			out = append(out, g.Key())
		}
	}
	return out
}

// NextState returns the state a newly eligible candidate goal should
// advance to: waiting_for_pre_approval if the goal requires
// pre-approval, otherwise requested.
func NextState(def goal.Definition) goal.State {
	if def.PreApprovalRequired {
		return goal.StateWaitingForPreApproval
	}
	return goal.StateRequested
}

// CancelCascade returns the updated events for every non-terminal
// goal in set, moved to canceled. Terminal goals are left untouched.
func CancelCascade(set goal.Set) []goal.Event {
	var out []goal.Event
	for _, g := range set.Goals {
		if g.State.IsTerminal() {
			continue
		}
		updated, err := Apply(g, goal.StateCanceled)
		if err != nil {
			// Apply only rejects canceling an already-terminal goal,
			// which IsTerminal already filtered out above.
			continue
		}
		out = append(out, updated)
	}
	return out
}
