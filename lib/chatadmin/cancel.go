// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package chatadmin

import (
	"context"
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/goalstate"
	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// CancelService implements the "list pending goal sets" / "cancel
// one" / "cancel all" operations behind the chat admin surface. It
// has no transport of its own; Serve wires it to the bus.
type CancelService struct {
	// Self identifies the registration whose goal sets this service
	// manages; ListPending is expected to scope its results to it.
	Self ref.RegistrationName

	// ListPending returns every goal set with at least one non-terminal
	// goal owned by Self. There is no single "list pending sets" bus
	// call, so callers supply this from whatever index they maintain —
	// the master process wiring backs it with the in-memory index it
	// already maintains by watching KindRequestedSdmGoal and
	// KindCompletedSdmGoal subscriptions.
	ListPending func(ctx context.Context, self ref.RegistrationName) ([]goal.Set, error)

	// PutGoalState applies a state transition to a single goal event,
	// normally bus.EventBus.PutGoalState.
	PutGoalState func(ctx context.Context, update goal.StateUpdate) error
}

// List returns every pending goal set for s.Self.
func (s *CancelService) List(ctx context.Context) ([]goal.Set, error) {
	sets, err := s.ListPending(ctx, s.Self)
	if err != nil {
		return nil, fmt.Errorf("chatadmin: listing pending goal sets: %w", err)
	}
	return sets, nil
}

// Cancel moves every non-terminal goal in the set identified by
// goalSetID to canceled. Idempotent: a set with no non-terminal goals
// left (already fully canceled or since completed) updates nothing
// and returns no error.
func (s *CancelService) Cancel(ctx context.Context, set goal.Set) error {
	for _, updated := range goalstate.CancelCascade(set) {
		if err := s.PutGoalState(ctx, goal.ForEvent(updated, updated.State)); err != nil {
			return fmt.Errorf("chatadmin: canceling goal %s: %w", updated.UniqueName, err)
		}
	}
	return nil
}

// CancelAll cancels every pending set returned by List.
func (s *CancelService) CancelAll(ctx context.Context) error {
	sets, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, set := range sets {
		if err := s.Cancel(ctx, set); err != nil {
			return err
		}
	}
	return nil
}
