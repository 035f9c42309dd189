// Copyright 2026 The SDM Core Authors
// SPDX-License-Identifier: Apache-2.0

package completion

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// renderer is initialized once and reused: goldmark's parser/renderer
// configuration never changes and goldmark.Markdown is safe to share
// across calls to Convert.
var (
	rendererInstance goldmark.Markdown
	rendererOnce     sync.Once
)

func sharedRenderer() goldmark.Markdown {
	rendererOnce.Do(func() {
		rendererInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return rendererInstance
}

// RenderDescriptionHTML renders a goal's Markdown description
// to HTML, shared by
// the chat summary and the HTML status page so both read from one
// rendering path.
func RenderDescriptionHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := sharedRenderer().Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
