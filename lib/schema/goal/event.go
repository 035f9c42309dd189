// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goal

import "github.com/atomist-sdm/sdmcore/lib/ref"

// Event is a single instance of a Definition for a specific push. It
// is the unit the signer signs, the dispatcher admits, and the state
// engine advances.
type Event struct {
	GoalSetID   ref.GoalSetID
	UniqueName  ref.UniqueName
	Environment ref.Environment

	// Name is the human-facing goal name, distinct from UniqueName
	// (which is the stable machine key).
	Name string

	SHA    ref.SHA
	Branch ref.BranchName
	Repo   ref.RepoCoordinate

	State State

	// TS is the external store's monotonic revision for this goal
	// record. The state engine always acts on the goal with the
	// highest observed TS.
	TS int64

	// Version increments on every content change to the event,
	// independent of TS (which is store-assigned).
	Version int

	PreConditions []Key
	Fulfillment   Fulfillment

	// Data is free-form structured data a fulfillment callback may
	// enrich before the goal moves to requested.
	Data string

	// URL is the progress log's public URL, set once the executor's
	// log pipeline has a persistent sink.
	URL string

	// ExternalURLs lists additional links surfaced alongside URL
	// (e.g. a deployed environment's address).
	ExternalURLs []string

	Provenance []Provenance

	Approval    *Provenance
	PreApproval *Provenance

	RetryFeasible       bool
	ApprovalRequired    bool
	PreApprovalRequired bool

	// Description is the current human-readable status line, set from
	// the Definition's DescriptionTemplates as the goal advances.
	Description string

	// Signature is the base64-encoded RSA-SHA512 signature over the
	// canonical serialization. Empty when
	// signing is disabled.
	Signature string
}

// Key returns the Event's (environment, uniqueName) key.
func (e Event) Key() Key {
	return Key{Environment: e.Environment, UniqueName: e.UniqueName}
}

// Relevant reports whether this event belongs to the given
// registration's fulfillment responsibility — the dispatcher's first
// admission filter. A goal is relevant if its
// fulfillment names this registration directly (Sdm or SideEffect
// with a matching name); a SideEffect belonging to another
// registration, or an Other-method goal, is not something this
// registration should execute, though Other still reaches the
// dispatcher to be failed explicitly (see lib/dispatch).
func (e Event) Relevant(self ref.RegistrationName) bool {
	switch e.Fulfillment.Method {
	case FulfillmentSdm:
		return true
	case FulfillmentSideEffect:
		return e.Fulfillment.Name == self
	default:
		return false
	}
}
