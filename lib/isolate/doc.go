// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package isolate implements the two required Isolated-Goal Scheduler
// strategies: a local subprocess re-exec and a
// Kubernetes Job. Both satisfy lib/dispatch.Scheduler and claim an
// invocation by inspecting its GoalInvocation.Parameters["isolation"]
// hint, set by the goal implementation that registered the
// Definition.
//
// Either strategy launches a worker that re-enters this same binary
// with ATOMIST_ISOLATED_GOAL=true, fetches its exact goal event over a
// bootstrap socket (lib/workerproto), runs the dispatcher's in-process
// path against it, and reports the terminal result back over the same
// socket before exiting.
package isolate
