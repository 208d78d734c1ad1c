// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dify-tui/internal/appapi"
	"github.com/jeranaias/dify-tui/internal/config"
	"github.com/jeranaias/dify-tui/internal/exchange"
	"github.com/jeranaias/dify-tui/internal/store"
	"github.com/jeranaias/dify-tui/internal/ui/components"
	"github.com/jeranaias/dify-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// focusArea tracks which pane receives navigation keys.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat interface.
//
// IMPORTANT: mutex-holding members (controller, stores, toasts, gate)
// are pointers so Bubble Tea's value-copying Update never copies a lock.
type Model struct {
	cfg           *config.Config
	api           appapi.API
	controller    *exchange.Controller
	conversations *store.ConversationStore
	state         *store.StateStore

	keys     KeyMap
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	toasts   *components.ToastManager
	markdown *components.MarkdownRenderer
	gate     *renderGate

	width  int
	height int
	ready  bool

	sidebarVisible bool
	sidebarIndex   int
	focus          focusArea

	showThoughts bool
	showWorkflow bool
}

// New creates the chat model. The controller must already be wired to
// forward its events into the program as ControllerMsg values.
func New(cfg *config.Config, api appapi.API, controller *exchange.Controller, conversations *store.ConversationStore, stateStore *store.StateStore, toasts *components.ToastManager) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4000
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Purple)

	wrap := cfg.UI.WrapWidth
	if wrap == 0 {
		wrap = 100
	}

	return Model{
		cfg:            cfg,
		api:            api,
		controller:     controller,
		conversations:  conversations,
		state:          stateStore,
		keys:           DefaultKeyMap(),
		viewport:       vp,
		input:          ti,
		spinner:        sp,
		toasts:         toasts,
		markdown:       components.NewMarkdownRenderer(wrap),
		gate:           newRenderGate(),
		sidebarVisible: true,
		showThoughts:   cfg.UI.ShowThoughts,
		showWorkflow:   cfg.UI.ShowWorkflow,
	}
}

// Init starts the bootstrap fetches and the UI tickers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		fetchAppParamsCmd(m.api),
		fetchConversationsCmd(m.api),
		m.spinner.Tick,
		components.ToastTickCmd(),
		textinput.Blink,
	)
}

// activeConversationID returns the selected conversation id, or "".
func (m *Model) activeConversationID() string {
	return m.conversations.ActiveID()
}

// streaming reports whether an exchange is in flight.
func (m *Model) streaming() bool {
	switch m.controller.State() {
	case exchange.StateSending, exchange.StateStreaming, exchange.StateCompleting:
		return true
	}
	return false
}

// lastAnswerID returns the id of the newest feedback-capable answer in
// the active conversation, or "".
func (m *Model) lastAnswerID() string {
	msgs := m.controller.Messages(m.activeConversationID())
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAnswer && !msgs[i].FeedbackDisabled {
			return msgs[i].ID
		}
	}
	return ""
}
