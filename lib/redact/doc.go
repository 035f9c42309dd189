// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package redact strips credential-shaped substrings from text before
// it reaches a log line, progress log entry, or chat message. It
// recognizes the broad categories of secret this core otherwise
// handles carefully (access tokens, age identities, service tokens),
// extended here with the shapes a goal event's data or description
// can plausibly carry: bearer tokens, AWS-style access keys, and RSA
// private key PEM blocks.
package redact
