// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goal

import "github.com/atomist-sdm/sdmcore/lib/ref"

// StateUpdate is the mutation a dispatcher or reactor sends to the
// bus when a goal event advances: a new state plus the fields that
// travel with it.
type StateUpdate struct {
	GoalSetID   ref.GoalSetID
	UniqueName  ref.UniqueName
	Environment ref.Environment

	State        State
	Description  string
	URL          string
	ExternalURLs []string
	Data         string
	Phase        string
}

// ForEvent builds the StateUpdate that advances e to state, carrying
// e's identity and the terminal-result fields already set on it.
func ForEvent(e Event, state State) StateUpdate {
	return StateUpdate{
		GoalSetID:    e.GoalSetID,
		UniqueName:   e.UniqueName,
		Environment:  e.Environment,
		State:        state,
		Description:  e.Description,
		URL:          e.URL,
		ExternalURLs: e.ExternalURLs,
		Data:         e.Data,
	}
}
