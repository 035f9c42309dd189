// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// used throughout the delivery-goal orchestration core: goal set
// identifiers, commit SHAs, branch names, unique goal names, provider
// and repository coordinates, and bus record identifiers.
//
// Every ref type enforces its own validity at construction: a
// ref.SHA is always 40 lowercase hex characters, a ref.GoalSetID is
// always a well-formed UUID, a ref.UniqueName never contains
// whitespace. Once constructed, a ref is immutable and its String
// form is pre-computed.
//
// Ref types implement encoding.TextMarshaler/TextUnmarshaler so they
// serialize as plain strings in both JSON (external bus payloads) and
// CBOR (internal worker protocol) without extra glue.
package ref
