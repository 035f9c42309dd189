// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goal

import "github.com/atomist-sdm/sdmcore/lib/ref"

// Set is a collection of Events sharing a GoalSetID — everything the
// planner emitted for one push. State is a derived value;
// CachedState is only a last-computed hint for display and is never
// read by logic that needs the true state — callers use Derive.
type Set struct {
	GoalSetID ref.GoalSetID
	Repo      ref.RepoCoordinate
	SHA       ref.SHA
	Branch    ref.BranchName

	Goals []Event

	// CachedState is the state value as last persisted by whichever
	// component wrote the set record. It exists for cheap display
	// (chat "list goal sets") without recomputation, but Derive is
	// always the authoritative source.
	CachedState State
}

// Derive computes the set's authoritative state from its goals:
// pending if any goal is non-terminal, success if every goal
// succeeded, failure otherwise (includes skipped/stopped/canceled
// mixes). An empty set
// (no goals planned) derives to StateSuccess — there is nothing left
// to do.
func (s Set) Derive() State {
	if len(s.Goals) == 0 {
		return StateSuccess
	}

	allSuccess := true
	anyNonTerminal := false
	for _, g := range s.Goals {
		if !g.State.IsTerminal() {
			anyNonTerminal = true
		}
		if g.State != StateSuccess {
			allSuccess = false
		}
	}

	switch {
	case anyNonTerminal:
		return StateRequested // non-terminal umbrella state, "pending" in external terms
	case allSuccess:
		return StateSuccess
	default:
		return StateFailure
	}
}

// Find returns the goal matching key, and whether it was found.
func (s Set) Find(key Key) (Event, bool) {
	for _, g := range s.Goals {
		if g.Key() == key {
			return g, true
		}
	}
	return Event{}, false
}

// AllTerminal reports whether every goal in the set has reached a
// terminal state.
func (s Set) AllTerminal() bool {
	for _, g := range s.Goals {
		if !g.State.IsTerminal() {
			return false
		}
	}
	return true
}

// NonTerminal returns the keys of every goal not yet in a terminal
// state — the cancellation cascade's target set.
func (s Set) NonTerminal() []Key {
	var keys []Key
	for _, g := range s.Goals {
		if !g.State.IsTerminal() {
			keys = append(keys, g.Key())
		}
	}
	return keys
}
