// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders answer bodies as terminal markdown. The
// underlying glamour renderer is rebuilt when the wrap width changes
// (terminal resize) and reused otherwise.
type MarkdownRenderer struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer creates a renderer wrapping at the given width.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	return &MarkdownRenderer{width: width}
}

// SetWidth updates the wrap width; the renderer is rebuilt lazily.
func (r *MarkdownRenderer) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width != r.width {
		r.width = width
		r.renderer = nil
	}
}

// Render converts markdown to styled terminal output. On renderer
// failure the raw text is returned so content is never lost.
func (r *MarkdownRenderer) Render(markdown string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.renderer == nil {
		width := r.width
		if width < 20 {
			width = 20
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
	}

	out, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
