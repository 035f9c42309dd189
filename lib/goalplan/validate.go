// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalplan

import (
	"fmt"

	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// Validate checks a rule list for structural issues. Returns a list
// of human-readable issue descriptions; an empty list means the rule
// list is valid. Validate never returns a Go error — callers decide
// whether any issues are fatal.
//
// Structural checks include:
//   - At least one rule is required
//   - Each rule must set a Test and at least one Goal
//   - Every goal must have a non-empty UniqueName
//   - A goal's PreConditions must name a Key defined by some rule
//     in the same rule list (precondition keys are resolved at plan
//     time, not at fulfillment time)
//   - The precondition graph across all rules must be acyclic,
//     checked at load time rather than discovered as a stall at run
//     time
func Validate(rules []Rule) []string {
	var issues []string

	if len(rules) == 0 {
		issues = append(issues, "rule list has no rules (at least one rule is required)")
	}

	defined := make(map[goal.Key]bool)
	for index, rule := range rules {
		prefix := fmt.Sprintf("rules[%d]", index)
		if rule.Test == nil {
			issues = append(issues, fmt.Sprintf("%s %q: missing test", prefix, rule.Name))
		}
		if len(rule.Goals) == 0 {
			issues = append(issues, fmt.Sprintf("%s %q: contributes no goals", prefix, rule.Name))
		}
		for _, def := range rule.Goals {
			if def.UniqueName.IsZero() {
				issues = append(issues, fmt.Sprintf("%s %q: goal has empty uniqueName", prefix, rule.Name))
				continue
			}
			defined[goal.Key{Environment: def.Environment, UniqueName: def.UniqueName}] = true
		}
	}

	for index, rule := range rules {
		prefix := fmt.Sprintf("rules[%d]", index)
		for _, def := range rule.Goals {
			if def.UniqueName.IsZero() {
				continue
			}
			for _, pre := range def.PreConditions {
				if !defined[pre] {
					issues = append(issues, fmt.Sprintf(
						"%s %q: goal %q depends on undefined goal %q",
						prefix, rule.Name, def.UniqueName.String(), pre.String(),
					))
				}
			}
		}
	}

	if cycle := findCycle(rules); cycle != nil {
		issues = append(issues, fmt.Sprintf("precondition graph has a cycle: %s", formatCycle(cycle)))
	}

	return issues
}

func formatCycle(cycle []goal.Key) string {
	s := ""
	for i, k := range cycle {
		if i > 0 {
			s += " -> "
		}
		s += k.String()
	}
	s += " -> " + cycle[0].String()
	return s
}

// findCycle runs Tarjan's strongly-connected-components algorithm
// over the precondition graph formed by every goal defined across all
// rules. It returns the member keys of the first non-trivial
// component found (a cycle), or nil if the graph is acyclic.
func findCycle(rules []Rule) []goal.Key {
	adjacency := make(map[goal.Key][]goal.Key)
	for _, rule := range rules {
		for _, def := range rule.Goals {
			if def.UniqueName.IsZero() {
				continue
			}
			key := goal.Key{Environment: def.Environment, UniqueName: def.UniqueName}
			adjacency[key] = append(adjacency[key], def.PreConditions...)
		}
	}

	t := &tarjan{
		adjacency: adjacency,
		index:     make(map[goal.Key]int),
		lowlink:   make(map[goal.Key]int),
		onStack:   make(map[goal.Key]bool),
	}
	for node := range adjacency {
		if _, visited := t.index[node]; !visited {
			if cycle := t.strongConnect(node); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

type tarjan struct {
	adjacency map[goal.Key][]goal.Key
	index     map[goal.Key]int
	lowlink   map[goal.Key]int
	onStack   map[goal.Key]bool
	stack     []goal.Key
	counter   int
}

// strongConnect is the standard Tarjan SCC recursion. It returns the
// first strongly connected component it finds with more than one
// member, or a single self-referencing node, signaling a cycle;
// otherwise nil.
func (t *tarjan) strongConnect(v goal.Key) []goal.Key {
	t.index[v] = t.counter
	t.lowlink[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.adjacency[v] {
		if _, visited := t.index[w]; !visited {
			if cycle := t.strongConnect(w); cycle != nil {
				return cycle
			}
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] != t.index[v] {
		return nil
	}

	var component []goal.Key
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		component = append(component, w)
		if w == v {
			break
		}
	}

	if len(component) > 1 {
		return component
	}
	// A single-node component is a cycle only if the node
	// self-references (appears in its own precondition list).
	for _, w := range t.adjacency[v] {
		if w == v {
			return component
		}
	}
	return nil
}
