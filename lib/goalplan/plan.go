// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalplan

import (
	"context"
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/goalstate"
	"github.com/atomist-sdm/sdmcore/lib/pushtest"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/schema/push"
)

// Listener is notified as Plan assigns each goal's initial Definition,
// before the Set is returned. A planner wires a Listener so that a
// signer and a store write can happen before the Set is handed to the
// dispatcher.
type Listener func(e goal.Event)

// Plan evaluates every rule's push test against p in file order and
// merges the goals of matching rules into a fresh Goal Set, according
// to policy. A goal with no PreConditions is given its ready state
// immediately (NextState); a goal with unsatisfied PreConditions
// starts Planned and is advanced later by lib/goalstate.Candidates as
// its dependencies succeed.
func Plan(ctx context.Context, p push.Push, rules []Rule, policy MergePolicy, registry *pushtest.Registry, pc pushtest.Context, listener Listener) (goal.Set, error) {
	if policy == "" {
		policy = MergeAdditive
	}

	defs := make(map[goal.Key]goal.Definition)
	var order []goal.Key

	for _, rule := range rules {
		result, err := pushtest.Evaluate(ctx, rule.Test, pc, registry)
		if err != nil {
			return goal.Set{}, fmt.Errorf("evaluating rule %q: %w", rule.Name, err)
		}
		if !result.Matched {
			continue
		}

		for _, def := range rule.Goals {
			key := goal.Key{Environment: def.Environment, UniqueName: def.UniqueName}
			if _, exists := defs[key]; !exists {
				order = append(order, key)
			}
			defs[key] = def
		}

		if policy == MergeReplace {
			break
		}
	}

	if len(defs) == 0 {
		return goal.Set{
			GoalSetID: ref.NewGoalSetID(),
			Repo:      p.Repo,
			SHA:       p.SHA,
			Branch:    p.Branch,
		}, nil
	}

	setID := ref.NewGoalSetID()
	set := goal.Set{
		GoalSetID: setID,
		Repo:      p.Repo,
		SHA:       p.SHA,
		Branch:    p.Branch,
	}

	for _, key := range order {
		def := defs[key]
		state := goal.StatePlanned
		if len(def.PreConditions) == 0 {
			state = goalstate.NextState(def)
		}

		event := goal.Event{
			GoalSetID:           setID,
			UniqueName:          def.UniqueName,
			Environment:         def.Environment,
			Name:                def.UniqueName.String(),
			SHA:                 p.SHA,
			Branch:              p.Branch,
			Repo:                p.Repo,
			State:               state,
			PreConditions:       def.PreConditions,
			Fulfillment:         def.Fulfillment,
			RetryFeasible:       def.RetryFeasible,
			ApprovalRequired:    def.ApprovalRequired,
			PreApprovalRequired: def.PreApprovalRequired,
			Description:         def.Description,
		}

		set.Goals = append(set.Goals, event)
		if listener != nil {
			listener(event)
		}
	}

	set.CachedState = set.Derive()
	return set, nil
}
