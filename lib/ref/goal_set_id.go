// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"

	"github.com/google/uuid"
)

// GoalSetID identifies one goal set: the collection of goals planned
// for a single push. Freshly generated by the planner for every push
// that produces at least one goal.
//
// GoalSetID is an immutable value type backed by a UUID. The zero
// value is not valid; use IsZero to check.
type GoalSetID struct {
	id uuid.UUID
}

// NewGoalSetID generates a fresh random (v4) goal set identifier.
func NewGoalSetID() GoalSetID {
	return GoalSetID{id: uuid.New()}
}

// ParseGoalSetID validates and wraps a raw UUID string.
func ParseGoalSetID(raw string) (GoalSetID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return GoalSetID{}, fmt.Errorf("goal set id %q: %w", raw, err)
	}
	return GoalSetID{id: id}, nil
}

// MustParseGoalSetID is like ParseGoalSetID but panics on error.
func MustParseGoalSetID(raw string) GoalSetID {
	g, err := ParseGoalSetID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseGoalSetID(%q): %v", raw, err))
	}
	return g
}

// String returns the canonical UUID string form.
func (g GoalSetID) String() string { return g.id.String() }

// IsZero reports whether the GoalSetID is the zero value (uninitialized).
func (g GoalSetID) IsZero() bool { return g.id == uuid.Nil }

// MarshalText implements encoding.TextMarshaler.
func (g GoalSetID) MarshalText() ([]byte, error) {
	if g.IsZero() {
		return nil, nil
	}
	return []byte(g.id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GoalSetID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*g = GoalSetID{}
		return nil
	}
	parsed, err := ParseGoalSetID(string(data))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
