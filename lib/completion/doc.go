// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package completion implements the Goal-Completion Reactor
//: on any completed goal event relevant to
// this registration, it re-fetches the full goal set, broadcasts to
// every registered Listener, and publishes an external status once
// the completed goal failed or the whole set succeeded.
package completion
