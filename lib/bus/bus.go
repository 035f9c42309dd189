// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package bus defines EventBus, the Go contract standing in for the
// external event bus: a small, I/O-only interface, easily faked for
// tests (bus/membus) and backed by a real HTTP implementation in
// production (bus/httpbus).
package bus

import (
	"context"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/schema/job"
)

// EventKind identifies the category of event published or subscribed
// to.
type EventKind string

const (
	KindPushToAnyBranch    EventKind = "PushToAnyBranch"
	KindFirstPushToRepo    EventKind = "FirstPushToRepo"
	KindRequestedSdmGoal   EventKind = "RequestedSdmGoal"
	KindSuccessfulSdmGoal  EventKind = "SuccessfulSdmGoal"
	KindCompletedSdmGoal   EventKind = "CompletedSdmGoal"
	KindJobTask            EventKind = "JobTask"
	KindUserJoiningChannel EventKind = "UserJoiningChannel"
	KindSuccessStatus      EventKind = "SuccessStatus"
)

// RecordID is the bus-assigned identifier for a published event.
type RecordID string

// Envelope wraps a delivered event with its kind and raw payload, left
// for the subscriber to unmarshal into the type it expects for that
// kind (mirroring messaging.Event's raw-content-plus-type shape).
type Envelope struct {
	Kind    EventKind
	Payload []byte
}

// EventBus is the contract every component in this core uses to
// publish events, subscribe to them, and read or write goal/job state,
// without depending on the bus's actual transport.
type EventBus interface {
	// Publish emits an event of the given kind. payload is marshaled by
	// the implementation (JSON for bus/httpbus).
	Publish(ctx context.Context, kind EventKind, payload any) (RecordID, error)

	// Subscribe returns a channel delivering every future event of
	// kind. The channel is closed when ctx is canceled or the
	// subscription is lost.
	Subscribe(ctx context.Context, kind EventKind) (<-chan Envelope, error)

	// GetGoalSet fetches the authoritative goal set for goalSetID.
	GetGoalSet(ctx context.Context, goalSetID ref.GoalSetID) (*goal.Set, error)

	// PutGoalState applies a state transition to a goal event.
	PutGoalState(ctx context.Context, update goal.StateUpdate) error

	// CreateJob creates a durable Job record, returning its assigned ID.
	CreateJob(ctx context.Context, j job.Job) (job.ID, error)

	// SetTaskState updates one task's state within an existing Job.
	SetTaskState(ctx context.Context, jobID job.ID, task string, state job.TaskState) error
}
