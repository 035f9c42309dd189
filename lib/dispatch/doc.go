// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch implements the Fulfillment Dispatcher: the
// admission filters a requested goal event passes through before
// execution, in-process execution of the goal's implementation, and
// hand-off to a configured scheduler for isolated execution.
package dispatch
