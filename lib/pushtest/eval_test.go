// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package pushtest

import (
	"context"
	"testing"

	"github.com/atomist-sdm/sdmcore/lib/ref"
	"github.com/atomist-sdm/sdmcore/lib/schema/push"
)

func testPush() push.Push {
	return push.Push{
		SHA:           ref.MustParseSHA("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"),
		Branch:        ref.MustParseBranchName("main"),
		DefaultBranch: ref.MustParseBranchName("main"),
		CommitMessage: "fix: widget overflow",
	}
}

func TestEvaluateIsBranchAndIsDefaultBranch(t *testing.T) {
	pc := Context{Push: testPush()}

	test := &push.Test{Kind: push.TestAnd, Subtrees: []*push.Test{
		{Kind: push.TestIsBranch, Regex: "^main$"},
		{Kind: push.TestIsDefaultBranch},
	}}

	result, err := Evaluate(context.Background(), test, pc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Matched {
		t.Error("expected match for main branch that is the default branch")
	}
}

func TestEvaluateNot(t *testing.T) {
	pc := Context{Push: testPush()}
	test := &push.Test{Kind: push.TestNot, Not: &push.Test{Kind: push.TestIsBranch, Regex: "^release/.*$"}}

	result, err := Evaluate(context.Background(), test, pc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Matched {
		t.Error("expected not(isBranch release/*) to match on main")
	}
}

func TestEvaluateOrShortCircuits(t *testing.T) {
	pc := Context{Push: testPush()}
	calls := 0
	pc.FileExists = func(ctx context.Context, path string) (bool, error) {
		calls++
		return false, nil
	}

	test := &push.Test{Kind: push.TestOr, Subtrees: []*push.Test{
		{Kind: push.TestIsBranch, Regex: "^main$"},
		{Kind: push.TestHasFile, Path: "go.mod"},
	}}

	result, err := Evaluate(context.Background(), test, pc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Matched {
		t.Error("expected match")
	}
	if calls != 0 {
		t.Errorf("expected short-circuit before evaluating hasFile, got %d FileExists calls", calls)
	}
}

func TestEvaluateMemoizesIOLeaves(t *testing.T) {
	pc := Context{Push: testPush()}
	calls := 0
	pc.FileExists = func(ctx context.Context, path string) (bool, error) {
		calls++
		return true, nil
	}

	leaf := &push.Test{Kind: push.TestHasFile, Path: "go.mod"}
	test := &push.Test{Kind: push.TestAnd, Subtrees: []*push.Test{leaf, leaf}}

	result, err := Evaluate(context.Background(), test, pc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Matched {
		t.Error("expected match")
	}
	if calls != 1 {
		t.Errorf("expected FileExists to be memoized to 1 call, got %d", calls)
	}
}

func TestEvaluateMaterialChange(t *testing.T) {
	pc := Context{
		Push:         testPush(),
		ChangedFiles: []string{"lib/dispatch/dispatch.go", "README.md"},
	}
	test := &push.Test{
		Kind: push.TestIsMaterialChange,
		MaterialChange: &push.MaterialChangeSpec{
			Directories: []string{"lib/dispatch"},
		},
	}

	result, err := Evaluate(context.Background(), test, pc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Matched {
		t.Error("expected material change match for lib/dispatch directory")
	}
}

func TestEvaluateUnrecognizedKindFails(t *testing.T) {
	pc := Context{Push: testPush()}
	test := &push.Test{Kind: "bogus"}

	_, err := Evaluate(context.Background(), test, pc, nil)
	if err == nil {
		t.Error("expected error for unrecognized node kind")
	}
}

func TestEvaluateExtensionRegistry(t *testing.T) {
	pc := Context{Push: testPush()}
	registry := NewRegistry()
	registry.Register("alwaysTrue", func(ctx context.Context, pc Context, args map[string]any) (bool, error) {
		return true, nil
	})

	test := &push.Test{Kind: push.TestExtension, ExtensionName: "alwaysTrue"}
	result, err := Evaluate(context.Background(), test, pc, registry)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Matched {
		t.Error("expected registered extension to match")
	}
}

func TestEvaluateExtensionUnregisteredFails(t *testing.T) {
	pc := Context{Push: testPush()}
	test := &push.Test{Kind: push.TestExtension, ExtensionName: "missing"}

	_, err := Evaluate(context.Background(), test, pc, NewRegistry())
	if err == nil {
		t.Error("expected error for unregistered extension")
	}
}

func TestEvaluateTransientErrorPropagates(t *testing.T) {
	pc := Context{Push: testPush()}
	pc.FileExists = func(ctx context.Context, path string) (bool, error) {
		return false, context.DeadlineExceeded
	}

	test := &push.Test{Kind: push.TestHasFile, Path: "go.mod"}
	_, err := Evaluate(context.Background(), test, pc, nil)
	if err == nil {
		t.Error("expected transient I/O error to propagate rather than evaluate to false")
	}
}
