// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goaltemplate

import (
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

func TestExpandKnownVariable(t *testing.T) {
	got := Expand("building ${branch}", map[string]string{"branch": "main"})
	if got != "building main" {
		t.Errorf("Expand() = %q", got)
	}
}

func TestExpandLeavesUnresolvedReferenceIntact(t *testing.T) {
	got := Expand("deploying to ${target}", nil)
	if got != "deploying to ${target}" {
		t.Errorf("Expand() = %q, want unresolved reference left as-is", got)
	}
}

func TestDescribeFallsBackToDescription(t *testing.T) {
	def := goal.Definition{Description: "Waiting to run"}
	e := goal.Event{State: goal.StatePlanned}
	if got := Describe(def, e, nil); got != "Waiting to run" {
		t.Errorf("Describe() = %q", got)
	}
}

func TestDescribeUsesStateTemplate(t *testing.T) {
	def := goal.Definition{
		Description:           "Running ${uniqueName}",
		DescriptionTemplates:  map[goal.State]string{goal.StateSuccess: "${uniqueName} succeeded on ${shortSha}"},
	}
	e := goal.Event{
		UniqueName: ref.MustParseUniqueName("build"),
		SHA:        ref.MustParseSHA("0123456789abcdef0123456789abcdef01234567"),
		State:      goal.StateSuccess,
	}
	got := Describe(def, e, nil)
	want := "build succeeded on 0123456"
	if got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}
