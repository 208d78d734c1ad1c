// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// ApplyTheme pins the light/dark background assumption for all adaptive
// colors. "auto" queries the terminal; an explicit theme overrides what
// the terminal reports.
func ApplyTheme(theme string) {
	switch strings.ToLower(theme) {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}

// HasTrueColor reports whether the terminal supports 24-bit color.
func HasTrueColor() bool {
	return termenv.ColorProfile() == termenv.TrueColor
}
