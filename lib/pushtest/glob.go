// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package pushtest

import "path/filepath"

// globMatch reports whether name matches the shell glob pattern,
// using path/filepath.Match. None of the pack's examples carry a
// dedicated glob library (doublestar, gobwas/glob): filepath.Match
// already covers the single-segment "*"/"?"/"[...]" semantics the
// push-test glob payloads need, and pulling in a new dependency for
// directory-spanning "**" semantics is unjustified when callers that
// need that reach for isMaterialChange's directory-prefix matching
// instead.
func globMatch(pattern, name string) (bool, error) {
	return filepath.Match(pattern, name)
}
