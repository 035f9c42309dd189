// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalplan

import (
	"context"
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/pushtest"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/schema/push"
)

func testPush(t *testing.T) push.Push {
	t.Helper()
	return push.Push{
		SHA:    ref.MustParseSHA("0123456789abcdef0123456789abcdef01234567"),
		Branch: ref.MustParseBranchName("main"),
		Repo: ref.RepoCoordinate{
			Provider: ref.ProviderID{},
			Owner:    "acme",
			Name:     "widget",
		},
		DefaultBranch: ref.MustParseBranchName("main"),
	}
}

func TestPlanNoMatchingRulesYieldsEmptySet(t *testing.T) {
	p := testPush(t)
	rules := []Rule{
		{Name: "only on release", Test: &push.Test{Kind: push.TestIsBranch, Regex: "^release/"}, Goals: []goal.Definition{def("build")}},
	}
	set, err := Plan(context.Background(), p, rules, MergeAdditive, pushtest.NewRegistry(), pushtest.Context{Push: p}, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(set.Goals) != 0 {
		t.Fatalf("expected no goals, got %d", len(set.Goals))
	}
	if set.GoalSetID.IsZero() {
		t.Error("expected a fresh GoalSetID even for an empty set")
	}
}

func TestPlanLeafGoalStartsRequested(t *testing.T) {
	p := testPush(t)
	rules := []Rule{
		{Name: "build on every push", Test: &push.Test{Kind: push.TestIsBranch, Regex: ".*"}, Goals: []goal.Definition{def("build")}},
	}
	set, err := Plan(context.Background(), p, rules, MergeAdditive, pushtest.NewRegistry(), pushtest.Context{Push: p}, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(set.Goals) != 1 {
		t.Fatalf("expected one goal, got %d", len(set.Goals))
	}
	if set.Goals[0].State != goal.StateRequested {
		t.Errorf("expected leaf goal to start requested, got %v", set.Goals[0].State)
	}
}

func TestPlanDependentGoalStartsPlanned(t *testing.T) {
	p := testPush(t)
	rules := []Rule{
		{Name: "pipeline", Test: &push.Test{Kind: push.TestIsBranch, Regex: ".*"}, Goals: []goal.Definition{
			def("build"),
			def("deploy", "build"),
		}},
	}
	set, err := Plan(context.Background(), p, rules, MergeAdditive, pushtest.NewRegistry(), pushtest.Context{Push: p}, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	deployKey := goal.Key{UniqueName: ref.MustParseUniqueName("deploy")}
	deployGoal, found := set.Find(deployKey)
	if !found {
		t.Fatal("deploy goal missing from plan")
	}
	if deployGoal.State != goal.StatePlanned {
		t.Errorf("expected dependent goal to start planned, got %v", deployGoal.State)
	}
}

func TestPlanLeafGoalRespectsPreApproval(t *testing.T) {
	p := testPush(t)
	d := def("deploy-prod")
	d.PreApprovalRequired = true
	rules := []Rule{
		{Name: "prod deploy", Test: &push.Test{Kind: push.TestIsBranch, Regex: ".*"}, Goals: []goal.Definition{d}},
	}
	set, err := Plan(context.Background(), p, rules, MergeAdditive, pushtest.NewRegistry(), pushtest.Context{Push: p}, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if set.Goals[0].State != goal.StateWaitingForPreApproval {
		t.Errorf("expected pre-approval-required leaf to start waiting_for_pre_approval, got %v", set.Goals[0].State)
	}
}

func TestPlanAdditiveMergeLaterRuleWins(t *testing.T) {
	p := testPush(t)
	first := def("build")
	first.Description = "first"
	second := def("build")
	second.Description = "second"
	rules := []Rule{
		{Name: "r1", Test: &push.Test{Kind: push.TestIsBranch, Regex: ".*"}, Goals: []goal.Definition{first}},
		{Name: "r2", Test: &push.Test{Kind: push.TestIsBranch, Regex: ".*"}, Goals: []goal.Definition{second}},
	}
	set, err := Plan(context.Background(), p, rules, MergeAdditive, pushtest.NewRegistry(), pushtest.Context{Push: p}, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(set.Goals) != 1 {
		t.Fatalf("expected the two rules' identical keys to merge into one goal, got %d", len(set.Goals))
	}
	if set.Goals[0].Description != "second" {
		t.Errorf("expected the later rule's definition to win, got description %q", set.Goals[0].Description)
	}
}

func TestPlanReplacePolicyStopsAtFirstMatch(t *testing.T) {
	p := testPush(t)
	rules := []Rule{
		{Name: "r1", Test: &push.Test{Kind: push.TestIsBranch, Regex: ".*"}, Goals: []goal.Definition{def("build")}},
		{Name: "r2", Test: &push.Test{Kind: push.TestIsBranch, Regex: ".*"}, Goals: []goal.Definition{def("deploy")}},
	}
	set, err := Plan(context.Background(), p, rules, MergeReplace, pushtest.NewRegistry(), pushtest.Context{Push: p}, nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(set.Goals) != 1 || set.Goals[0].UniqueName.String() != "build" {
		t.Fatalf("expected only the first matching rule's goals under replace policy, got %+v", set.Goals)
	}
}

func TestPlanListenerCalledPerGoal(t *testing.T) {
	p := testPush(t)
	rules := []Rule{
		{Name: "r", Test: &push.Test{Kind: push.TestIsBranch, Regex: ".*"}, Goals: []goal.Definition{def("build"), def("lint")}},
	}
	var seen []string
	listener := func(e goal.Event) { seen = append(seen, e.UniqueName.String()) }
	if _, err := Plan(context.Background(), p, rules, MergeAdditive, pushtest.NewRegistry(), pushtest.Context{Push: p}, listener); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected listener called once per planned goal, got %v", seen)
	}
}
