// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatadmin provides the async command framework for the
// goal-set cancellation admin surface:
// "list goal sets <sdm-name>" and "cancel goal sets <sdm-name>".
//
// Commands are published to the bus as KindChatCommand events and
// answered with a correlated KindChatCommandResult event: a
// publish/wait-for-reply shape built on bus.EventBus's
// Publish/Subscribe.
//
// This package provides three levels of API on the client side:
//
//   - Execute sends a command and waits for a single result. Use for
//     "list goal sets", which always returns exactly one reply.
//
//   - Send returns a Future for fine-grained control: the caller
//     decides when to wait or whether to discard it.
//
// On the server side, Serve subscribes to KindChatCommand and answers
// each one by calling into a CancelService, publishing the result
// under the same request ID the caller is waiting on.
package chatadmin
