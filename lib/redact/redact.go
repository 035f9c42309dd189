// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package redact

import "regexp"

// pattern pairs a compiled matcher with the placeholder it leaves
// behind, so the redacted text still names what was removed.
type pattern struct {
	re          *regexp.Regexp
	placeholder string
}

// patterns lists every credential shape String scans for, checked in
// order. PEM blocks are matched first since they can otherwise swallow
// a later pattern's match inside their base64 body.
var patterns = []pattern{
	{
		re:          regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (?:RSA |EC |OPENSSH )?PRIVATE KEY-----`),
		placeholder: "[redacted:private-key]",
	},
	{
		re:          regexp.MustCompile(`AGE-SECRET-KEY-1[A-Z0-9]{58}`),
		placeholder: "[redacted:age-identity]",
	},
	{
		re:          regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		placeholder: "[redacted:aws-access-key]",
	},
	{
		re:          regexp.MustCompile(`syt_[A-Za-z0-9_]{20,}`),
		placeholder: "[redacted:chat-access-token]",
	},
	{
		re:          regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-_.=]{16,}`),
		placeholder: "[redacted:bearer-token]",
	},
}

// String returns text with every recognized credential shape replaced
// by a placeholder naming the shape that matched. Safe to call on text
// with no secrets — it is then returned unchanged.
func String(text string) string {
	for _, p := range patterns {
		text = p.re.ReplaceAllString(text, p.placeholder)
	}
	return text
}

// Map applies String to every value in fields, leaving keys untouched.
// Callers use this to redact a goal event's Data or a structured log
// field set before it reaches an emitted progress log line.
func Map(fields map[string]string) map[string]string {
	if fields == nil {
		return nil
	}
	redacted := make(map[string]string, len(fields))
	for key, value := range fields {
		redacted[key] = String(value)
	}
	return redacted
}
