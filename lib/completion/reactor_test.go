// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

func testGoalSetID() ref.GoalSetID { return ref.NewGoalSetID() }

func buildGoal(method goal.FulfillmentMethod, self ref.RegistrationName, state goal.State) goal.Event {
	return goal.Event{
		GoalSetID:  testGoalSetID(),
		UniqueName: ref.MustParseUniqueName("build"),
		State:      state,
		Fulfillment: goal.Fulfillment{
			Method: method,
			Name:   self,
		},
	}
}

func TestReactIgnoresIrrelevantGoal(t *testing.T) {
	self := ref.MustParseRegistrationName("acme-sdm")
	other := ref.MustParseRegistrationName("other-sdm")

	fetchCalled := false
	r := &Reactor{
		Self: self,
		FetchSet: func(_ context.Context, _ ref.GoalSetID) (goal.Set, error) {
			fetchCalled = true
			return goal.Set{}, nil
		},
	}

	completed := buildGoal(goal.FulfillmentSideEffect, other, goal.StateSuccess)
	if err := r.React(context.Background(), completed); err != nil {
		t.Fatalf("React: %v", err)
	}
	if fetchCalled {
		t.Error("expected FetchSet not to be called for an irrelevant goal")
	}
}

func TestReactBroadcastsToAllListenersDespiteIndividualFailure(t *testing.T) {
	self := ref.MustParseRegistrationName("acme-sdm")
	completed := buildGoal(goal.FulfillmentSdm, self, goal.StateSuccess)
	set := goal.Set{GoalSetID: completed.GoalSetID, Goals: []goal.Event{completed}}

	var called []string
	r := &Reactor{
		Self:     self,
		FetchSet: func(_ context.Context, _ ref.GoalSetID) (goal.Set, error) { return set, nil },
		Listeners: []Listener{
			{Name: "first", Handle: func(_ context.Context, _ Invocation) error {
				called = append(called, "first")
				return errors.New("boom")
			}},
			{Name: "second", Handle: func(_ context.Context, _ Invocation) error {
				called = append(called, "second")
				return nil
			}},
		},
	}

	if err := r.React(context.Background(), completed); err != nil {
		t.Fatalf("React: %v", err)
	}
	if len(called) != 2 {
		t.Errorf("called = %v, want both listeners invoked", called)
	}
}

func TestReactPublishesFailureOnFailedGoal(t *testing.T) {
	self := ref.MustParseRegistrationName("acme-sdm")
	completed := buildGoal(goal.FulfillmentSdm, self, goal.StateFailure)
	completed.URL = "https://logs.example.com/abc"
	set := goal.Set{GoalSetID: completed.GoalSetID, Goals: []goal.Event{completed}}

	var gotStatus goal.ExternalStatus
	var gotURL string
	r := &Reactor{
		Self:     self,
		FetchSet: func(_ context.Context, _ ref.GoalSetID) (goal.Set, error) { return set, nil },
		PublishStatus: func(_ context.Context, _ ref.GoalSetID, status goal.ExternalStatus, url string) error {
			gotStatus = status
			gotURL = url
			return nil
		},
	}

	if err := r.React(context.Background(), completed); err != nil {
		t.Fatalf("React: %v", err)
	}
	if gotStatus != goal.ExternalFailure {
		t.Errorf("status = %q, want failure", gotStatus)
	}
	if gotURL != completed.URL {
		t.Errorf("url = %q, want %q", gotURL, completed.URL)
	}
}

func TestReactPublishesSuccessOnlyWhenAllGoalsTerminalAndSucceeded(t *testing.T) {
	self := ref.MustParseRegistrationName("acme-sdm")
	completed := buildGoal(goal.FulfillmentSdm, self, goal.StateSuccess)
	pending := buildGoal(goal.FulfillmentSdm, self, goal.StateInProcess)
	set := goal.Set{GoalSetID: completed.GoalSetID, Goals: []goal.Event{completed, pending}}

	published := false
	r := &Reactor{
		Self:     self,
		FetchSet: func(_ context.Context, _ ref.GoalSetID) (goal.Set, error) { return set, nil },
		PublishStatus: func(_ context.Context, _ ref.GoalSetID, _ goal.ExternalStatus, _ string) error {
			published = true
			return nil
		},
	}

	if err := r.React(context.Background(), completed); err != nil {
		t.Fatalf("React: %v", err)
	}
	if published {
		t.Error("expected no status published while a sibling goal is still pending")
	}

	set.Goals[1].State = goal.StateSuccess
	if err := r.React(context.Background(), completed); err != nil {
		t.Fatalf("React: %v", err)
	}
	if !published {
		t.Error("expected success status published once every goal in the set is terminal and successful")
	}
}
