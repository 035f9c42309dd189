// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package goal defines the Goal, Goal Event, Goal Set, and Fulfillment
// types that the planner, state engine, dispatcher, and signer
// operate on.
package goal

// State is a goal's position in its lifecycle. The permitted
// transition table lives in lib/goalstate; this type only enumerates
// the legal values.
type State string

const (
	StatePlanned               State = "planned"
	StateRequested             State = "requested"
	StateWaitingForPreApproval State = "waiting_for_pre_approval"
	StatePreApproved           State = "pre_approved"
	StateWaitingForApproval    State = "waiting_for_approval"
	StateApproved              State = "approved"
	StateInProcess             State = "in_process"
	StateSuccess               State = "success"
	StateFailure               State = "failure"
	StateSkipped               State = "skipped"
	StateStopped               State = "stopped"
	StateCanceled              State = "canceled"
)

// terminal holds the states from which no further transition is
// permitted except an explicit planner-initiated retry.
var terminal = map[State]bool{
	StateSuccess:  true,
	StateFailure:  true,
	StateCanceled: true,
	StateSkipped:  true,
	StateStopped:  true,
}

// IsTerminal reports whether s is one of the terminal states.
func (s State) IsTerminal() bool { return terminal[s] }

// Valid reports whether s is one of the recognized state values.
func (s State) Valid() bool {
	switch s {
	case StatePlanned, StateRequested, StateWaitingForPreApproval, StatePreApproved,
		StateWaitingForApproval, StateApproved, StateInProcess, StateSuccess,
		StateFailure, StateSkipped, StateStopped, StateCanceled:
		return true
	default:
		return false
	}
}

// ExternalStatus is the coarse state this core reports to the
// source-control provider's commit-status API.
type ExternalStatus string

const (
	ExternalPending ExternalStatus = "pending"
	ExternalSuccess ExternalStatus = "success"
	ExternalFailure ExternalStatus = "failure"
)

// External maps a goal state to the external status a completion
// reactor or status publisher reports for it.
func (s State) External() ExternalStatus {
	switch s {
	case StateSuccess:
		return ExternalSuccess
	case StateFailure, StateSkipped, StateStopped, StateCanceled:
		return ExternalFailure
	default:
		return ExternalPending
	}
}

// FulfillmentMethod identifies who is responsible for fulfilling a
// goal.
type FulfillmentMethod string

const (
	// FulfillmentSdm means this SDM registration executes the goal.
	FulfillmentSdm FulfillmentMethod = "Sdm"
	// FulfillmentSideEffect means fulfillment happens as a side effect
	// of another system; execute only if Fulfillment.Name matches this
	// registration, otherwise ignore.
	FulfillmentSideEffect FulfillmentMethod = "SideEffect"
	// FulfillmentOther means no SDM fulfills this goal directly; any
	// goal that reaches the dispatcher with this method fails.
	FulfillmentOther FulfillmentMethod = "Other"
)
