// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalstate

import (
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

func key(name string) goal.Key {
	return goal.Key{Environment: ref.MustParseEnvironment("testing"), UniqueName: ref.MustParseUniqueName(name)}
}

func event(name string, state goal.State, retryFeasible bool, preconditions ...goal.Key) goal.Event {
	return goal.Event{
		UniqueName:    ref.MustParseUniqueName(name),
		Environment:   ref.MustParseEnvironment("testing"),
		State:         state,
		RetryFeasible: retryFeasible,
		PreConditions: preconditions,
	}
}

func TestCheckTransitionPermitted(t *testing.T) {
	cases := []struct {
		from, to goal.State
		retry    bool
		wantErr  bool
	}{
		{goal.StatePlanned, goal.StateRequested, false, false},
		{goal.StatePlanned, goal.StateInProcess, false, true}, // must pass through requested
		{goal.StateRequested, goal.StateInProcess, false, false},
		{goal.StateInProcess, goal.StateSuccess, false, false},
		{goal.StateInProcess, goal.StateWaitingForApproval, false, false},
		{goal.StateWaitingForApproval, goal.StateApproved, false, false},
		{goal.StateApproved, goal.StateSuccess, false, false},
		{goal.StateFailure, goal.StateRequested, true, false},
		{goal.StateFailure, goal.StateRequested, false, true}, // not retryFeasible
		{goal.StateSuccess, goal.StateRequested, false, true}, // terminal, no retry path
		{goal.StateInProcess, goal.StateCanceled, false, false},
		{goal.StateSuccess, goal.StateCanceled, false, true}, // already terminal
	}
	for _, c := range cases {
		err := CheckTransition(c.from, c.to, c.retry)
		if (err != nil) != c.wantErr {
			t.Errorf("CheckTransition(%v, %v, retry=%v) error = %v, wantErr %v", c.from, c.to, c.retry, err, c.wantErr)
		}
	}
}

func TestPreconditionInvariant(t *testing.T) {
	// A goal with an unsatisfied precondition must never be a candidate.
	upstream := event("build", goal.StatePlanned, false)
	downstream := event("deploy", goal.StatePlanned, false, key("build"))
	set := goal.Set{Goals: []goal.Event{upstream, downstream}}

	candidates := Candidates(set)
	for _, c := range candidates {
		if c == downstream.Key() {
			t.Error("downstream goal became a candidate while its precondition was unsatisfied")
		}
	}
}

func TestCandidatesAdvanceOnUpstreamSuccess(t *testing.T) {
	upstream := event("build", goal.StateSuccess, false)
	downstream := event("deploy", goal.StatePlanned, false, key("build"))
	set := goal.Set{Goals: []goal.Event{upstream, downstream}}

	candidates := Candidates(set)
	if len(candidates) != 1 || candidates[0] != downstream.Key() {
		t.Errorf("expected deploy to be the only candidate, got %v", candidates)
	}
}

func TestCandidatesIgnoreTerminalNonRetryable(t *testing.T) {
	g := event("flaky", goal.StateFailure, false)
	set := goal.Set{Goals: []goal.Event{g}}

	candidates := Candidates(set)
	if len(candidates) != 0 {
		t.Errorf("non-retryable failed goal should never be a candidate, got %v", candidates)
	}
}

func TestCancelCascadeSkipsTerminalGoals(t *testing.T) {
	nonTerminal := event("build", goal.StateRequested, false)
	terminal := event("lint", goal.StateSuccess, false)
	set := goal.Set{Goals: []goal.Event{nonTerminal, terminal}}

	updated := CancelCascade(set)
	if len(updated) != 1 {
		t.Fatalf("expected exactly one goal canceled, got %d", len(updated))
	}
	if updated[0].Key() != nonTerminal.Key() {
		t.Errorf("expected %v canceled, got %v", nonTerminal.Key(), updated[0].Key())
	}
	if updated[0].State != goal.StateCanceled {
		t.Errorf("expected state canceled, got %v", updated[0].State)
	}
}

func TestCancelCascadeIdempotent(t *testing.T) {
	set := goal.Set{Goals: []goal.Event{event("build", goal.StateCanceled, false)}}
	updated := CancelCascade(set)
	if len(updated) != 0 {
		t.Errorf("canceling an already-canceled set should be a no-op, got %d updates", len(updated))
	}
}

func TestSetDerive(t *testing.T) {
	cases := []struct {
		name  string
		goals []goal.Event
		want  goal.State
	}{
		{"empty", nil, goal.StateSuccess},
		{"all success", []goal.Event{event("a", goal.StateSuccess, false), event("b", goal.StateSuccess, false)}, goal.StateSuccess},
		{"pending", []goal.Event{event("a", goal.StateSuccess, false), event("b", goal.StateRequested, false)}, goal.StateRequested},
		{"failure", []goal.Event{event("a", goal.StateSuccess, false), event("b", goal.StateFailure, false)}, goal.StateFailure},
	}
	for _, c := range cases {
		set := goal.Set{Goals: c.goals}
		if got := set.Derive(); got != c.want {
			t.Errorf("%s: Derive() = %v, want %v", c.name, got, c.want)
		}
	}
}
