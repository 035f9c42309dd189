// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package pushtest evaluates the push-test predicate tree defined in
// lib/schema/push against a concrete push context, producing a
// decision and a trace of which nodes were visited — the same
// "decision plus reason trail" shape lib/authorization uses for
// access-control checks, applied here to push-test matching.
package pushtest
