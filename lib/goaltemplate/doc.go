// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

// Package goaltemplate expands ${NAME} variable references in goal
// description templates against a goal event's own fields.
package goaltemplate
