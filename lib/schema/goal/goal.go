// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goal

import "github.com/atomist-sdm/sdmcore/lib/ref"

// Key identifies a goal within a goal set: the (Environment,
// UniqueName) pair the precondition graph and admission filters key
// on, paired with GoalSetID to form a unique triple.
type Key struct {
	Environment ref.Environment
	UniqueName  ref.UniqueName
}

// String renders "environment/uniqueName", the form used in the
// canonical signing serialization's preConditions field and in
// chat/log references.
func (k Key) String() string {
	env := k.Environment.String()
	if env == "" {
		env = "default"
	}
	return env + "/" + k.UniqueName.String()
}

// Definition is a goal template: the declarative, push-independent
// description a rule file contributes to a plan. A Definition is
// instantiated into an Event once per push that matches the rule
// referencing it.
type Definition struct {
	UniqueName ref.UniqueName
	Environment ref.Environment

	// Description is the human-readable default description shown
	// before the goal has run.
	Description string

	// DescriptionTemplates holds per-state description overrides,
	// e.g. DescriptionTemplates[StateSuccess] = "Build succeeded".
	// Missing entries fall back to Description.
	DescriptionTemplates map[State]string

	// RetryFeasible marks whether a failed instance of this goal may
	// be moved back to requested by the planner.
	RetryFeasible bool

	// ApprovalRequired marks that an in_process → success transition
	// must pass through waiting_for_approval → approved first.
	ApprovalRequired bool

	// PreApprovalRequired marks that a leaf goal starts in
	// waiting_for_pre_approval instead of requested.
	PreApprovalRequired bool

	// PreConditions lists the Keys of goals this goal depends on.
	PreConditions []Key

	// Fulfillment names who executes this goal and how.
	Fulfillment Fulfillment
}

// Fulfillment names the responsible party and method for executing a
// goal.
type Fulfillment struct {
	Name   ref.RegistrationName
	Method FulfillmentMethod
}

// Provenance records who or what caused a state transition —
// approvals, pre-approvals, and each entry in the canonical form's
// provenance list.
type Provenance struct {
	Registration ref.RegistrationName
	Version      string
	Name         string
	UserID       string
	ChannelID    string
	Timestamp    int64
}
