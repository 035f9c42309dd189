// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package goalsign computes the canonical serialization of a goal
// event and signs/verifies it with RSA-SHA512. Canonical form and
// signature are what keeps a goal event
// trustworthy as it crosses the planner → bus → dispatcher → isolated
// worker boundary.
package goalsign
