// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package membus

import (
	"context"
	"testing"
	"time"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/schema/job"
	"github.com/atomist-sdm/sdmcore/lib/testutil"
)

func testGoalSetID(t *testing.T) ref.GoalSetID {
	t.Helper()
	id, err := ref.ParseGoalSetID("01234567-89ab-4def-8123-456789abcdef")
	if err != nil {
		t.Fatalf("ParseGoalSetID: %v", err)
	}
	return id
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "PushToAnyBranch")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, err := b.Publish(ctx, "PushToAnyBranch", map[string]string{"sha": "abc"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	env := testutil.RequireReceive(t, ch, time.Second, "waiting for published event")
	if env.Kind != "PushToAnyBranch" {
		t.Fatalf("Kind = %q, want PushToAnyBranch", env.Kind)
	}
}

func TestSubscribeChannelClosesWhenContextCanceled(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, "FirstPushToRepo")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to be closed, got a value")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestGetGoalSetReturnsSeededSet(t *testing.T) {
	b := New()
	goalSetID := testGoalSetID(t)
	b.SeedGoalSet(goal.Set{GoalSetID: goalSetID, Branch: ref.MustParseBranchName("main")})

	set, err := b.GetGoalSet(context.Background(), goalSetID)
	if err != nil {
		t.Fatalf("GetGoalSet: %v", err)
	}
	if set.Branch.String() != "main" {
		t.Fatalf("Branch = %q, want main", set.Branch.String())
	}
}

func TestGetGoalSetUnknownIDErrors(t *testing.T) {
	b := New()
	if _, err := b.GetGoalSet(context.Background(), testGoalSetID(t)); err == nil {
		t.Fatal("expected error for unseeded goal set")
	}
}

func TestPutGoalStateCreatesThenUpdatesGoal(t *testing.T) {
	b := New()
	goalSetID := testGoalSetID(t)
	uniqueName := ref.MustParseUniqueName("build")
	ctx := context.Background()

	update := goal.StateUpdate{
		GoalSetID:   goalSetID,
		UniqueName:  uniqueName,
		Environment: ref.MustParseEnvironment("testing"),
		State:       goal.StateRequested,
		Description: "queued",
	}
	if err := b.PutGoalState(ctx, update); err != nil {
		t.Fatalf("PutGoalState (create): %v", err)
	}

	update.State = goal.StateSuccess
	update.Description = "done"
	if err := b.PutGoalState(ctx, update); err != nil {
		t.Fatalf("PutGoalState (update): %v", err)
	}

	set, err := b.GetGoalSet(ctx, goalSetID)
	if err != nil {
		t.Fatalf("GetGoalSet: %v", err)
	}
	if len(set.Goals) != 1 {
		t.Fatalf("len(Goals) = %d, want 1", len(set.Goals))
	}
	if set.Goals[0].State != goal.StateSuccess || set.Goals[0].Description != "done" {
		t.Fatalf("Goals[0] = %+v, want State=success Description=done", set.Goals[0])
	}
}

func TestCreateJobAndSetTaskState(t *testing.T) {
	b := New()
	ctx := context.Background()

	id, err := b.CreateJob(ctx, job.Job{
		Name:  "release",
		Owner: "sdm-core",
		Tasks: []job.Task{{Name: "deploy", State: job.TaskCreated}},
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty job ID")
	}

	if err := b.SetTaskState(ctx, id, "deploy", job.TaskSuccess); err != nil {
		t.Fatalf("SetTaskState: %v", err)
	}
	if err := b.SetTaskState(ctx, id, "missing-task", job.TaskSuccess); err == nil {
		t.Fatal("expected error setting state on unknown task")
	}
	if err := b.SetTaskState(ctx, "no-such-job", "deploy", job.TaskSuccess); err == nil {
		t.Fatal("expected error setting state on unknown job")
	}
}
