// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import "context"

// Scheduler intercepts execution of a goal invocation to run it
// somewhere other than in-process.
// Configured schedulers are consulted in order; the first whose
// Supports returns true takes over via Schedule. The isolated-goal
// subprocess and Kubernetes strategies in lib/isolate each implement
// this interface.
type Scheduler interface {
	Supports(inv GoalInvocation) bool
	Schedule(ctx context.Context, inv GoalInvocation) (Result, error)
}

// ExecutionListener observes a goal's execution lifecycle. Before is
// called once the goal has moved to in_process but before the
// executor runs; After is called once the terminal result is known,
// whatever it is.
type ExecutionListener struct {
	Before func(ctx context.Context, inv GoalInvocation)
	After  func(ctx context.Context, inv GoalInvocation, result Result)
}

// Implementation is what a Registry resolves for a goal's
// UniqueName: how to execute it, which schedulers may intercept it,
// and which listeners observe it.
type Implementation struct {
	Executor   Executor
	Schedulers []Scheduler
	Listeners  []ExecutionListener
}
