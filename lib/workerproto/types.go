// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package workerproto

import "github.com/atomist-sdm/sdmcore/lib/schema/goal"

// Request is a CBOR-encoded request from an isolated goal worker to
// its parent process, sent over the worker's bootstrap socket.
type Request struct {
	// Action is the request type: "fetch-goal" or "report-result".
	Action string `cbor:"action"`

	// GoalSetID and UniqueName identify the goal to fetch, for
	// "fetch-goal" requests.
	GoalSetID  string `cbor:"goal_set_id,omitempty"`
	UniqueName string `cbor:"unique_name,omitempty"`

	// Result carries the worker's outcome for "report-result" requests.
	Result *WorkerResult `cbor:"result,omitempty"`
}

// WorkerResult is the terminal outcome an isolated goal worker reports
// once its goal implementation completes, mirroring the in-process
// executor's Result shape (lib/dispatch.Result) so the parent applies
// the identical terminal-state inference logic.
type WorkerResult struct {
	Code         int      `cbor:"code"`
	Message      string   `cbor:"message,omitempty"`
	State        string   `cbor:"state,omitempty"`
	Phase        string   `cbor:"phase,omitempty"`
	URL          string   `cbor:"url,omitempty"`
	ExternalURLs []string `cbor:"external_urls,omitempty"`
}

// Response is a CBOR-encoded response from the parent process to an
// isolated goal worker.
type Response struct {
	// OK indicates whether the request succeeded.
	OK bool `cbor:"ok"`

	// Error contains the error message if OK is false.
	Error string `cbor:"error,omitempty"`

	// Goal is the fetched goal event, for a successful "fetch-goal"
	// response.
	Goal *goal.Event `cbor:"goal,omitempty"`
}
