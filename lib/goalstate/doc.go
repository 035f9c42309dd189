// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package goalstate implements the goal state machine's permitted
// transition table and the precondition engine that advances
// dependent goals as their upstream goals succeed. The package is
// pure: no I/O, no bus calls — callers apply
// the Advance result to the external store and their own side
// effects (fulfillment callbacks, listener notifications).
package goalstate
