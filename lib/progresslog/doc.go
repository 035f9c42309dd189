// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package progresslog implements the per-goal progress log: one
// logical log backed by an always-on ephemeral sink and, when
// available, a persistent sink.
//
// Writes broadcast to every configured sink. The persistent sink
// buffers writes and flushes on a size or time trigger; Close drains
// the buffer and must run, on every exit path, before the owning
// goal's terminal state is published.
package progresslog
