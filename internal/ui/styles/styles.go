// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// LAYOUT STYLES
// =============================================================================

// Header is the top bar with the app and conversation name.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(Cyan).
	Background(SurfaceDim).
	Padding(0, 1)

// StatusBar is the bottom bar with state and key hints.
var StatusBar = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Background(SurfaceDim).
	Padding(0, 1)

// Sidebar frames the conversation list.
var Sidebar = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(Overlay).
	Padding(0, 1)

// SidebarItem is an unselected conversation row.
var SidebarItem = lipgloss.NewStyle().
	Foreground(TextSecondary)

// SidebarActive is the selected conversation row.
var SidebarActive = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextInverse).
	Background(Purple)

// SidebarLocal marks the not-yet-saved conversation row.
var SidebarLocal = lipgloss.NewStyle().
	Italic(true).
	Foreground(Amber)

// =============================================================================
// MESSAGE STYLES
// =============================================================================

// Question is the user message block.
var Question = lipgloss.NewStyle().
	Foreground(UserBubbleFg).
	BorderStyle(lipgloss.NormalBorder()).
	BorderLeft(true).
	BorderForeground(UserBubbleBorder).
	PaddingLeft(1)

// Answer frames an assistant message block.
var Answer = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderLeft(true).
	BorderForeground(AnswerBorder).
	PaddingLeft(1)

// Thought renders agent reasoning segments.
var Thought = lipgloss.NewStyle().
	Italic(true).
	Foreground(TextMuted)

// ThoughtTool labels the tool a thought invoked.
var ThoughtTool = lipgloss.NewStyle().
	Foreground(Amber)

// Feedback renders the rating marker on an answer.
var Feedback = lipgloss.NewStyle().
	Foreground(Emerald)

// FeedbackNegative renders a dislike marker.
var FeedbackNegative = lipgloss.NewStyle().
	Foreground(Rose)

// Opening renders the synthesized opening statement.
var Opening = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Italic(true).
	PaddingLeft(1)

// =============================================================================
// WORKFLOW STYLES
// =============================================================================

// WorkflowRunning colors an in-flight node.
var WorkflowRunning = lipgloss.NewStyle().Foreground(Amber)

// WorkflowSucceeded colors a finished node.
var WorkflowSucceeded = lipgloss.NewStyle().Foreground(Emerald)

// WorkflowFailed colors a failed node.
var WorkflowFailed = lipgloss.NewStyle().Foreground(Rose)

// =============================================================================
// TOAST STYLES
// =============================================================================

// ToastError frames error toasts.
var ToastError = lipgloss.NewStyle().
	Foreground(TextInverse).
	Background(Rose).
	Padding(0, 1)

// ToastWarning frames warning toasts.
var ToastWarning = lipgloss.NewStyle().
	Foreground(TextInverse).
	Background(Amber).
	Padding(0, 1)

// ToastStatus frames informational toasts.
var ToastStatus = lipgloss.NewStyle().
	Foreground(TextInverse).
	Background(Cyan).
	Padding(0, 1)

// ToastSuccess frames success toasts.
var ToastSuccess = lipgloss.NewStyle().
	Foreground(TextInverse).
	Background(Emerald).
	Padding(0, 1)
