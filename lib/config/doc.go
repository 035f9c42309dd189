// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for this core's
// binaries.
//
// Configuration is loaded from a single file specified by either the
// SDMCORE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production's default override requires
// goal-event signing rather than silently accepting unsigned events.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${ATOMIST_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Registration, Bus, Ledger,
//     ProgressLog, Signing, Isolate, Paths
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other packages in this core, so that
// every other package may depend on it without a cycle.
package config
