// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for this core's
// service and worker binaries. These functions centralize the two
// legitimate raw I/O patterns that exist before or after the
// structured logger:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit after an unrecoverable error in main().
//
// Direct fmt.Fprintf/fmt.Printf calls are otherwise avoided outside
// CLI output paths in favor of the structured logger; this package
// and lib/version are the two exceptions.
package process
