// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// Credentials carries the short-lived tokens an executor needs to
// reach the source-control provider and the event bus on the goal's
// behalf. Populated by the caller wiring the dispatcher; this package
// treats it opaquely.
type Credentials struct {
	ProviderToken string
	BusToken      string
}

// AddressableChannels lets an executor or listener post a message to
// wherever the push that produced this goal was discussed (a chat
// channel, a pull request thread).
type AddressableChannels interface {
	Send(message string) error
}

// PreferencesStore is a small per-workspace key/value store an
// executor may consult for sticky configuration (e.g. "skip tests on
// this repo until further notice").
type PreferencesStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// ProgressLog is the logical log an invocation writes to; lib/progresslog
// provides the concrete ephemeral+persistent sink composition.
type ProgressLog interface {
	Write(line string) error
	Close() error
	URL() string
}

// GoalInvocation bundles everything an Executor or Scheduler needs to
// fulfill one goal.
type GoalInvocation struct {
	Goal        goal.Event
	Credentials Credentials
	Channels    AddressableChannels
	Preferences PreferencesStore
	Log         ProgressLog

	// Parameters holds the goal's parsed Data field, when the
	// implementation declares a parameter schema.
	Parameters map[string]string
}
