// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package goalplan turns a push plus an ordered rule list into a
// Goal Set: it evaluates each rule's push test, merges the goals of
// matching rules according to the configured merge policy, and
// assigns each goal its initial lifecycle state from its position in
// the dependency graph.
package goalplan
