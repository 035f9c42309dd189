// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goaltemplate

import (
	"regexp"
	"strconv"

	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

// variablePattern matches ${NAME} references. Only the braced form is
// recognized.
var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Variables builds the standard variable map available to every goal
// description template: the event's own identifying fields plus any
// caller-supplied extras (e.g. a build number pulled from Data).
func Variables(e goal.Event, extra map[string]string) map[string]string {
	vars := map[string]string{
		"uniqueName":  e.UniqueName.String(),
		"environment": e.Environment.String(),
		"name":        e.Name,
		"sha":         e.SHA.String(),
		"shortSha":    e.SHA.Short(),
		"branch":      e.Branch.String(),
		"repo":        e.Repo.String(),
		"state":       string(e.State),
		"version":     strconv.Itoa(e.Version),
		"url":         e.URL,
	}
	for name, value := range extra {
		vars[name] = value
	}
	return vars
}

// Expand replaces every ${NAME} reference in input with its value
// from variables. A reference with no value in the map is left
// unexpanded rather than failing the caller: a goal description is
// cosmetic status text, not an executable command, so a best-effort
// render is preferable to an error that would leave the goal with no
// description at all.
func Expand(input string, variables map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-1]
		if value, exists := variables[name]; exists {
			return value
		}
		return match
	})
}

// Describe renders the description for e's current state: the
// state-specific template from def.DescriptionTemplates if one is
// set, otherwise def.Description, expanded against e's own fields.
func Describe(def goal.Definition, e goal.Event, extra map[string]string) string {
	template, ok := def.DescriptionTemplates[e.State]
	if !ok || template == "" {
		template = def.Description
	}
	return Expand(template, Variables(e, extra))
}
