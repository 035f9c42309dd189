// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"strings"
	"testing"
)

func TestRenderDescriptionHTMLRendersBasicMarkdown(t *testing.T) {
	html, err := RenderDescriptionHTML("**build** failed on `main`")
	if err != nil {
		t.Fatalf("RenderDescriptionHTML: %v", err)
	}
	if !strings.Contains(html, "<strong>build</strong>") {
		t.Errorf("html = %q, want bold build", html)
	}
	if !strings.Contains(html, "<code>main</code>") {
		t.Errorf("html = %q, want code span for main", html)
	}
}

func TestRenderDescriptionHTMLRendersGFMTable(t *testing.T) {
	markdown := "| goal | state |\n| --- | --- |\n| build | success |\n"
	html, err := RenderDescriptionHTML(markdown)
	if err != nil {
		t.Fatalf("RenderDescriptionHTML: %v", err)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("html = %q, want a GFM table", html)
	}
}
