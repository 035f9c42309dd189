// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger provides the local admission ledger the dispatcher
// checks before executing a goal, enforcing at-most-once execution: a
// small SQLite table recording, per goal, the highest TS this process
// has already admitted to in_process.
// A redelivered bus event carrying a TS this process already admitted
// is detected locally, without a network round trip back to the bus.
package ledger
