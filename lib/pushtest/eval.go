// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package pushtest

import (
	"context"
	"fmt"
	"regexp"

	"github.com/atomist-sdm/sdmcore/lib/schema/push"
)

// Context bundles everything a push-test leaf may need to look
// beyond the Push struct itself: working-tree access, prior-goal
// lookup, and resource-provider lookup. Concrete implementations are
// supplied by the caller (the planner) — this package only consumes
// the interface.
type Context struct {
	Push push.Push

	// Files reports the set of file paths changed by this push,
	// relative to the repository root. Used by isMaterialChange.
	ChangedFiles []string

	FileExists      func(ctx context.Context, path string) (bool, error)
	FileContains    func(ctx context.Context, glob, contentRegex string) (bool, error)
	GoalMatches     func(ctx context.Context, spec push.IsGoalSpec) (bool, error)
	ResourceExists  func(ctx context.Context, spec push.ResourceProviderSpec) (bool, error)
}

// StepTrace records one visited node and its outcome, for debugging
// why a push-test tree matched or didn't.
type StepTrace struct {
	Kind    push.TestKind
	Name    string
	Matched bool
	Err     error
}

// Result is the outcome of evaluating a Test tree: whether it
// matched, and the depth-first trace of every node visited.
type Result struct {
	Matched bool
	Trace   []StepTrace
}

// Registry resolves TestExtension nodes by name. Extension factories
// are registered by callers that embed domain-specific predicates
// this core does not know about.
type Registry struct {
	factories map[string]func(ctx context.Context, pc Context, args map[string]any) (bool, error)
}

// NewRegistry returns an empty extension registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func(context.Context, Context, map[string]any) (bool, error))}
}

// Register adds a named extension predicate factory. Registering the
// same name twice replaces the previous factory.
func (r *Registry) Register(name string, factory func(ctx context.Context, pc Context, args map[string]any) (bool, error)) {
	r.factories[name] = factory
}

// Evaluate walks test depth-first against pc, short-circuiting and/or
// in input order and memoizing I/O leaves per evaluation.
func Evaluate(ctx context.Context, test *push.Test, pc Context, registry *Registry) (Result, error) {
	e := &evaluator{ctx: ctx, pc: pc, registry: registry, memo: make(map[string]bool)}
	matched, err := e.visit(test)
	return Result{Matched: matched, Trace: e.trace}, err
}

type evaluator struct {
	ctx      context.Context
	pc       Context
	registry *Registry
	memo     map[string]bool
	trace    []StepTrace
}

func (e *evaluator) record(t *push.Test, matched bool, err error) {
	e.trace = append(e.trace, StepTrace{Kind: t.Kind, Name: t.Name, Matched: matched, Err: err})
}

func (e *evaluator) visit(t *push.Test) (bool, error) {
	if t == nil {
		return false, fmt.Errorf("pushtest: nil node")
	}

	switch t.Kind {
	case push.TestHasFile:
		return e.leaf(t, "hasFile:"+t.Path, func() (bool, error) {
			if e.pc.FileExists == nil {
				return false, fmt.Errorf("hasFile: no FileExists function configured")
			}
			return e.pc.FileExists(e.ctx, t.Path)
		})

	case push.TestIsRepo:
		return e.matchRegexLeaf(t, t.Regex, e.pc.Push.Repo.Name)

	case push.TestIsBranch:
		return e.matchRegexLeaf(t, t.Regex, e.pc.Push.Branch.String())

	case push.TestIsDefaultBranch:
		matched := !e.pc.Push.DefaultBranch.IsZero() && e.pc.Push.Branch == e.pc.Push.DefaultBranch
		e.record(t, matched, nil)
		return matched, nil

	case push.TestHasCommit:
		return e.matchRegexLeaf(t, t.Regex, e.pc.Push.CommitMessage)

	case push.TestIsGoal:
		if t.IsGoal == nil {
			err := fmt.Errorf("isGoal: missing payload")
			e.record(t, false, err)
			return false, err
		}
		return e.leaf(t, "isGoal:"+t.IsGoal.NameRegex+":"+t.IsGoal.State, func() (bool, error) {
			if e.pc.GoalMatches == nil {
				return false, fmt.Errorf("isGoal: no GoalMatches function configured")
			}
			ok, err := e.pc.GoalMatches(e.ctx, *t.IsGoal)
			if err != nil || !ok {
				return ok, err
			}
			if t.IsGoal.Nested != nil {
				return e.visit(t.IsGoal.Nested)
			}
			return true, nil
		})

	case push.TestIsMaterialChange:
		if t.MaterialChange == nil {
			err := fmt.Errorf("isMaterialChange: missing payload")
			e.record(t, false, err)
			return false, err
		}
		matched, err := materialChangeMatches(*t.MaterialChange, e.pc.ChangedFiles)
		e.record(t, matched, err)
		return matched, err

	case push.TestHasFileContaining:
		if t.HasFileContaining == nil {
			err := fmt.Errorf("hasFileContaining: missing payload")
			e.record(t, false, err)
			return false, err
		}
		key := "hasFileContaining:" + fmt.Sprint(t.HasFileContaining.Globs) + ":" + t.HasFileContaining.ContentRegex
		return e.leaf(t, key, func() (bool, error) {
			if e.pc.FileContains == nil {
				return false, fmt.Errorf("hasFileContaining: no FileContains function configured")
			}
			for _, glob := range t.HasFileContaining.Globs {
				ok, err := e.pc.FileContains(e.ctx, glob, t.HasFileContaining.ContentRegex)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		})

	case push.TestHasResourceProvider:
		if t.ResourceProvider == nil {
			err := fmt.Errorf("hasResourceProvider: missing payload")
			e.record(t, false, err)
			return false, err
		}
		key := "hasResourceProvider:" + t.ResourceProvider.Type + ":" + t.ResourceProvider.Name
		return e.leaf(t, key, func() (bool, error) {
			if e.pc.ResourceExists == nil {
				return false, fmt.Errorf("hasResourceProvider: no ResourceExists function configured")
			}
			return e.pc.ResourceExists(e.ctx, *t.ResourceProvider)
		})

	case push.TestNot:
		if t.Not == nil {
			err := fmt.Errorf("not: missing subtree")
			e.record(t, false, err)
			return false, err
		}
		inner, err := e.visit(t.Not)
		if err != nil {
			return false, err
		}
		matched := !inner
		e.record(t, matched, nil)
		return matched, nil

	case push.TestAnd:
		for _, sub := range t.Subtrees {
			ok, err := e.visit(sub)
			if err != nil {
				return false, err
			}
			if !ok {
				e.record(t, false, nil)
				return false, nil
			}
		}
		e.record(t, true, nil)
		return true, nil

	case push.TestOr:
		for _, sub := range t.Subtrees {
			ok, err := e.visit(sub)
			if err != nil {
				return false, err
			}
			if ok {
				e.record(t, true, nil)
				return true, nil
			}
		}
		e.record(t, false, nil)
		return false, nil

	case push.TestExtension:
		if e.registry == nil {
			err := fmt.Errorf("extension %q: no registry configured", t.ExtensionName)
			e.record(t, false, err)
			return false, err
		}
		factory, ok := e.registry.factories[t.ExtensionName]
		if !ok {
			err := fmt.Errorf("extension %q: not registered", t.ExtensionName)
			e.record(t, false, err)
			return false, err
		}
		matched, err := factory(e.ctx, e.pc, t.ExtensionArgs)
		e.record(t, matched, err)
		return matched, err

	default:
		err := fmt.Errorf("pushtest: unrecognized node kind %q", t.Kind)
		e.record(t, false, err)
		return false, err
	}
}

// leaf runs fn at most once per evaluation for a given memoization
// key, recording the result either way.
func (e *evaluator) leaf(t *push.Test, key string, fn func() (bool, error)) (bool, error) {
	if cached, ok := e.memo[key]; ok {
		e.record(t, cached, nil)
		return cached, nil
	}
	matched, err := fn()
	if err != nil {
		e.record(t, false, err)
		return false, err
	}
	e.memo[key] = matched
	e.record(t, matched, nil)
	return matched, nil
}

func (e *evaluator) matchRegexLeaf(t *push.Test, pattern, subject string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		e.record(t, false, err)
		return false, fmt.Errorf("compiling regex %q: %w", pattern, err)
	}
	matched := re.MatchString(subject)
	e.record(t, matched, nil)
	return matched, nil
}

// materialChangeMatches reports whether changedFiles intersects any
// of the directories/extensions/files/globs named in spec.
func materialChangeMatches(spec push.MaterialChangeSpec, changedFiles []string) (bool, error) {
	for _, file := range changedFiles {
		for _, dir := range spec.Directories {
			if hasPathPrefix(file, dir) {
				return true, nil
			}
		}
		for _, ext := range spec.Extensions {
			if hasSuffix(file, ext) {
				return true, nil
			}
		}
		for _, exact := range spec.Files {
			if file == exact {
				return true, nil
			}
		}
		for _, pattern := range spec.Globs {
			matched, err := globMatch(pattern, file)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
	}
	return false, nil
}

func hasPathPrefix(file, dir string) bool {
	if dir == "" {
		return false
	}
	prefix := dir
	if prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	return len(file) > len(prefix) && file[:len(prefix)] == prefix
}

func hasSuffix(file, ext string) bool {
	if ext == "" || len(file) < len(ext) {
		return false
	}
	return file[len(file)-len(ext):] == ext
}
