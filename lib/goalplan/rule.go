// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalplan

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
	"github.com/atomist-sdm/sdmcore/lib/schema/push"
)

// Rule pairs a push test with the goal definitions it contributes to
// a plan when the test matches. Rules are
// applied in file order; MergePolicy controls how a later matching
// rule's goals combine with an earlier one's.
type Rule struct {
	Name  string     `json:"name" yaml:"name"`
	Test  *push.Test `json:"test" yaml:"test"`
	Goals []goal.Definition `json:"goals" yaml:"goals"`
}

// MergePolicy controls how goals contributed by multiple matching
// rules are combined into one Goal Set.
type MergePolicy string

const (
	// MergeAdditive is the default: every matching rule's goals are
	// added to the set. A later rule naming the same Key as an
	// earlier one replaces that goal's Definition (last rule wins),
	// but does not remove goals no later rule mentions.
	MergeAdditive MergePolicy = "additive"

	// MergeReplace means the first matching rule wins exclusively:
	// once a rule matches, no subsequent rule's goals are considered.
	MergeReplace MergePolicy = "replace"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a rule list. Rule files are authored on
// disk as JSONC so operators can comment goal definitions inline.
func Parse(data []byte) ([]Rule, error) {
	stripped := jsonc.ToJSON(data)

	var rules []Rule
	if err := json.Unmarshal(stripped, &rules); err != nil {
		return nil, fmt.Errorf("parsing goal rules: %w", err)
	}
	return rules, nil
}

// LoadRules reads a JSONC rule file from disk and parses it into a
// rule list. Returns a descriptive error if the file cannot be read
// or the JSON is malformed.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
