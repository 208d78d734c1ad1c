// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file composes the full-screen layout: header, sidebar,
// transcript viewport, input line and status bar.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dify-tui/internal/ui/components"
	"github.com/jeranaias/dify-tui/internal/ui/styles"
	"github.com/jeranaias/dify-tui/internal/util"
)

// sidebarWidth is the fixed width of the conversation list pane.
const sidebarWidth = 28

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var rows []string
	rows = append(rows, m.renderHeader())

	body := m.viewport.View()
	if m.sidebarVisible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), " ", body)
	}
	rows = append(rows, body)

	rows = append(rows, m.input.View())
	rows = append(rows, m.renderStatusBar())

	screen := lipgloss.JoinVertical(lipgloss.Left, rows...)

	if m.toasts.HasToasts() {
		screen += "\n" + components.RenderToasts(m.toasts.Toasts(), m.width)
	}
	return screen
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	title := "dify-tui"
	if conv := m.conversations.Active(); conv != nil {
		title += " · " + util.TruncateWidth(conv.Name, 48)
	}
	if m.streaming() {
		title += "  " + m.spinner.View()
	}
	return styles.Header.Width(m.width).Render(title)
}

func (m Model) renderSidebar() string {
	height := m.viewport.Height
	list := m.conversations.List()

	var b strings.Builder
	for i, conv := range list {
		if i >= height-2 {
			break
		}
		name := util.TruncateWidth(util.SingleLine(conv.Name), sidebarWidth-4)
		row := util.PadWidth(name, sidebarWidth-4)

		style := styles.SidebarItem
		switch {
		case i == m.sidebarIndex && m.focus == focusSidebar:
			style = styles.SidebarActive
		case conv.ID == m.conversations.ActiveID():
			style = styles.SidebarActive
		case conv.IsLocal():
			style = styles.SidebarLocal
		}
		b.WriteString(style.Render(row))
		b.WriteString("\n")
	}

	return styles.Sidebar.
		Width(sidebarWidth).
		Height(height).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderStatusBar() string {
	var hints []string
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}

	left := m.controller.State().String() + " · " + util.IntToString(m.conversations.Len()) + " chats"
	right := strings.Join(hints, "  ")

	bar := left + "  |  " + right
	return styles.StatusBar.Width(m.width).Render(util.TruncateWidth(bar, m.width-2))
}
