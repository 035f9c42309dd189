// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package push

// TestKind identifies the shape of a Test node. Analogous to how the
// original platform's push-test DSL is untyped JSON with a "kind"
// discriminator — this tagged union is the Go-typed equivalent.
type TestKind string

const (
	TestHasFile           TestKind = "hasFile"
	TestIsRepo            TestKind = "isRepo"
	TestIsBranch          TestKind = "isBranch"
	TestIsDefaultBranch   TestKind = "isDefaultBranch"
	TestIsGoal            TestKind = "isGoal"
	TestIsMaterialChange  TestKind = "isMaterialChange"
	TestHasFileContaining TestKind = "hasFileContaining"
	TestHasResourceProvider TestKind = "hasResourceProvider"
	TestHasCommit         TestKind = "hasCommit"
	TestNot               TestKind = "not"
	TestAnd               TestKind = "and"
	TestOr                TestKind = "or"
	// TestExtension marks a node whose evaluation is delegated to a
	// factory registered under Name in the extension registry (see
	// lib/pushtest.Registry). Unknown kinds are resolved against the
	// registry before evaluation fails.
	TestExtension TestKind = "extension"
)

// IsGoalSpec is the payload for a TestIsGoal node: "a prior goal
// matches all of these predicates".
type IsGoalSpec struct {
	// NameRegex matches the candidate goal's UniqueName.
	NameRegex string `json:"nameRegex" yaml:"nameRegex"`

	// State is the required terminal or in-flight state, e.g. "success".
	State string `json:"state" yaml:"state"`

	// OutputRegex, if set, must match the goal's recorded output text.
	OutputRegex string `json:"outputRegex,omitempty" yaml:"outputRegex,omitempty"`

	// DataRegex, if set, must match the JSON-encoded form of the
	// goal's structured data field.
	DataRegex string `json:"dataRegex,omitempty" yaml:"dataRegex,omitempty"`

	// Nested, if set, is evaluated against the same push context in
	// addition to the name/state/output/data predicates above.
	Nested *Test `json:"nested,omitempty" yaml:"nested,omitempty"`
}

// MaterialChangeSpec is the payload for a TestIsMaterialChange node:
// the changed-file set of the push must intersect one of these.
type MaterialChangeSpec struct {
	Directories []string `json:"directories,omitempty" yaml:"directories,omitempty"`
	Extensions  []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Files       []string `json:"files,omitempty" yaml:"files,omitempty"`
	Globs       []string `json:"globs,omitempty" yaml:"globs,omitempty"`
}

// HasFileContainingSpec is the payload for a TestHasFileContaining
// node: at least one file matching Globs has content matching
// ContentRegex.
type HasFileContainingSpec struct {
	Globs         []string `json:"globs" yaml:"globs"`
	ContentRegex  string   `json:"contentRegex" yaml:"contentRegex"`
}

// ResourceProviderSpec is the payload for a TestHasResourceProvider
// node: the workspace has a resource provider of Type, optionally
// with a specific Name.
type ResourceProviderSpec struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Test is a node in the push-test predicate tree. Exactly one of the
// fields corresponding to Kind is populated; the evaluator in
// lib/pushtest switches on Kind.
type Test struct {
	Kind TestKind `json:"kind" yaml:"kind"`

	// Name is an optional human-readable label, surfaced in trace
	// output and chat summaries — not used for matching.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Regex backs isRepo, isBranch, hasCommit.
	Regex string `json:"regex,omitempty" yaml:"regex,omitempty"`

	// Path backs hasFile.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	IsGoal             *IsGoalSpec            `json:"isGoal,omitempty" yaml:"isGoal,omitempty"`
	MaterialChange     *MaterialChangeSpec    `json:"isMaterialChange,omitempty" yaml:"isMaterialChange,omitempty"`
	HasFileContaining  *HasFileContainingSpec `json:"hasFileContaining,omitempty" yaml:"hasFileContaining,omitempty"`
	ResourceProvider   *ResourceProviderSpec  `json:"hasResourceProvider,omitempty" yaml:"hasResourceProvider,omitempty"`

	// Not holds the single subtree for a TestNot node.
	Not *Test `json:"not,omitempty" yaml:"not,omitempty"`

	// Subtrees holds the child list for TestAnd and TestOr nodes.
	Subtrees []*Test `json:"subtrees,omitempty" yaml:"subtrees,omitempty"`

	// ExtensionName names the registered factory for a TestExtension
	// node; ExtensionArgs is passed through to it unparsed.
	ExtensionName string `json:"extensionName,omitempty" yaml:"extensionName,omitempty"`
	ExtensionArgs map[string]any `json:"extensionArgs,omitempty" yaml:"extensionArgs,omitempty"`
}
