// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"

	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// Result is what an Executor or Scheduler reports back after
// attempting to fulfill a goal.
type Result struct {
	// Code is the process-style exit code: 0 means success, anything
	// else means failure, when State is not set explicitly.
	Code int

	Message      string
	State        goal.State
	Phase        string
	URL          string
	ExternalURLs []string
}

// terminalState infers the goal's terminal state from Code when State
// is not set explicitly.
func (r Result) terminalState() goal.State {
	if r.State != "" {
		return r.State
	}
	if r.Code == 0 {
		return goal.StateSuccess
	}
	return goal.StateFailure
}

// Executor performs one goal's work in-process and reports the
// outcome. Implementations are registered per goal UniqueName in a
// Registry.
type Executor interface {
	Execute(ctx context.Context, inv GoalInvocation) (Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, inv GoalInvocation) (Result, error)

func (f ExecutorFunc) Execute(ctx context.Context, inv GoalInvocation) (Result, error) {
	return f(ctx, inv)
}
