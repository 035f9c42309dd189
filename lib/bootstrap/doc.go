// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap defines the environment bundle an isolated goal
// worker is launched with, shared between the dispatcher (which
// writes it) and the worker re-entry path (which reads it). This
// avoids import cycles: both lib/dispatch and lib/isolate import
// lib/bootstrap, neither imports the other.
//
// The [Config] struct carries the identifying, non-secret fields a
// worker needs to fetch its exact goal event over the bootstrap
// socket: goal set, unique name, correlation
// id, and workspace identity. Live credentials (bus token, provider
// token) never travel through this file; they are sealed separately
// with lib/sealed to the worker's ephemeral key and read from the
// path named in CredentialSealPath.
//
// File operations:
//
//   - [WriteConfig] -- writes a bootstrap config as JSON with 0600
//     permissions (the file names the sealed credential bundle and
//     the socket the worker trusts, so it is treated as sensitive)
//   - [ReadConfig] -- reads and validates a bootstrap config from a file
//   - [WriteToStdout] -- writes formatted JSON to stdout, used when a
//     worker is launched with its bundle piped rather than a file path
//
// Depends on lib/ref for identity validation.
package bootstrap
