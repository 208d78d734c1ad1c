// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dify-tui/internal/config"
	"github.com/jeranaias/dify-tui/internal/ui/styles"
)

// =============================================================================
// UNAVAILABLE SCREEN
// =============================================================================

// UnavailableModel is shown when the app has no usable API credentials.
// It renders setup instructions and exits on any key.
type UnavailableModel struct {
	configPath string
}

// NewUnavailable creates the setup-instructions screen.
func NewUnavailable() UnavailableModel {
	path, err := config.ConfigPath()
	if err != nil {
		path = "~/.dify-tui/config.toml"
	}
	return UnavailableModel{configPath: path}
}

func (m UnavailableModel) Init() tea.Cmd {
	return nil
}

func (m UnavailableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return m, tea.Quit
	}
	return m, nil
}

func (m UnavailableModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(styles.Rose).
		Render("App unavailable: no API key configured")

	body := "Set an API key one of these ways:\n\n" +
		"  1. Edit " + m.configPath + " and set api.key\n" +
		"  2. Export DIFY_API_KEY in your shell\n" +
		"  3. Run with DIFY_DEMO=1 for an offline demo\n\n" +
		lipgloss.NewStyle().Foreground(styles.TextMuted).Render("Press any key to exit.")

	return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n\n" + body)
}
