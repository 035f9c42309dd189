// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package workerproto defines the CBOR-encoded request/response
// protocol an isolated goal worker speaks to its parent process over
// its bootstrap socket: fetch the exact goal event by
// (goalSetId, uniqueName), then report the terminal outcome.
package workerproto
