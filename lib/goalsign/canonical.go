// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package goalsign

import (
	"strconv"
	"strings"

	"github.com/atomist-sdm/sdmcore/lib/schema/goal"
)

const undefined = "undefined"

// Canonical renders the deterministic line-oriented form of a goal
// event that Sign and Verify operate on. Field order and the
// "undefined" placeholder for absent values must never change —
// changing either changes every previously issued signature's
// meaning.
func Canonical(e goal.Event) string {
	var b strings.Builder

	writeField(&b, "uniqueName", e.UniqueName.String())
	writeField(&b, "environment", e.Environment.String())
	writeField(&b, "goalSetId", e.GoalSetID.String())
	writeField(&b, "state", string(e.State))
	writeField(&b, "ts", strconv.FormatInt(e.TS, 10))
	writeField(&b, "version", strconv.Itoa(e.Version))
	writeField(&b, "repo", e.Repo.Owner+"/"+e.Repo.Name+"/"+e.Repo.Provider.String())
	writeField(&b, "sha", e.SHA.String())
	writeField(&b, "branch", e.Branch.String())
	writeField(&b, "fulfillment", e.Fulfillment.Name.String()+"-"+string(e.Fulfillment.Method))
	writeField(&b, "preConditions", joinKeys(e.PreConditions))
	writeField(&b, "data", orUndefined(e.Data))
	writeField(&b, "url", orUndefined(e.URL))
	writeField(&b, "externalUrls", strings.Join(e.ExternalURLs, ","))
	writeField(&b, "provenance", joinProvenance(e.Provenance))
	writeField(&b, "retry", strconv.FormatBool(e.RetryFeasible))
	writeField(&b, "approvalRequired", strconv.FormatBool(e.ApprovalRequired))
	writeField(&b, "approval", provenanceOrUndefined(e.Approval))
	writeField(&b, "preApprovalRequired", strconv.FormatBool(e.PreApprovalRequired))
	writeField(&b, "preApproval", provenanceOrUndefined(e.PreApproval))

	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('\n')
}

func orUndefined(v string) string {
	if v == "" {
		return undefined
	}
	return v
}

func joinKeys(keys []goal.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}

func formatProvenance(p goal.Provenance) string {
	return p.Registration.String() + ":" + p.Version + "/" + p.Name + "-" + p.UserID + "-" + p.ChannelID + "-" + strconv.FormatInt(p.Timestamp, 10)
}

func joinProvenance(entries []goal.Provenance) string {
	parts := make([]string, len(entries))
	for i, p := range entries {
		parts[i] = formatProvenance(p)
	}
	return strings.Join(parts, ",")
}

func provenanceOrUndefined(p *goal.Provenance) string {
	if p == nil {
		return undefined
	}
	return formatProvenance(*p)
}
