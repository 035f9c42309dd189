// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package gitsource gives push-test leaves (hasFile, hasFileContaining)
// and the isolated subprocess worker a local, on-disk view of the
// repository a push refers to. The source-control provider itself —
// how a RepoCoordinate maps to a clone URL, and how credentials for it
// are obtained — is an external collaborator this core only talks to
// through the ResolveCloneURL function a caller supplies; gitsource's
// own job stops at cloning, fetching, and checking out onto local
// disk, and reading files back out of the result.
package gitsource
