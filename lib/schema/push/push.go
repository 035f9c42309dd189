// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package push defines the Push and Push Test types: the context a
// goal planner evaluates rules against, and the tagged predicate tree
// push-test rules are built from.
package push

import (
	"time"

	"github.com/atomist-sdm/sdmcore/lib/ref"
)

// Push describes a single commit landing on a branch, the unit of
// work the goal planner reacts to.
type Push struct {
	// SHA is the commit that was pushed.
	SHA ref.SHA

	// Before is the commit the branch pointed to before this push,
	// the zero value for a branch's first push.
	Before ref.SHA

	// Branch is the branch the commit landed on.
	Branch ref.BranchName

	// Repo identifies the repository the push landed in.
	Repo ref.RepoCoordinate

	// DefaultBranch is the repository's configured default branch,
	// as reported by the source-control provider at push time.
	DefaultBranch ref.BranchName

	// Timestamp is when the push was received.
	Timestamp time.Time

	// CommitMessage is the head commit's message, used by
	// hasFileContaining-adjacent commit-message predicates.
	CommitMessage string

	// Author is the committer identity as reported by the provider.
	Author string
}

// IsFirstPush reports whether Before is unset — the push created the
// branch. A push-test evaluator must not assume DefaultBranch is
// populated on a first push; callers check IsFirstPush before relying
// on isDefaultBranch.
func (p Push) IsFirstPush() bool { return p.Before.IsZero() }
