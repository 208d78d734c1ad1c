// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dify-tui/internal/exchange"
	"github.com/jeranaias/dify-tui/internal/model"
	"github.com/jeranaias/dify-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages for the chat interface.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case RenderTickMsg:
		if m.gate.TakeIfDue() {
			m.refreshViewport(true)
		}
		if m.streaming() || m.gate.Pending() > 0 {
			return m, renderTickCmd()
		}
		return m, nil

	case ControllerMsg:
		return m.handleControllerEvent(msg.Event)

	case appParamsMsg:
		return m.handleAppParams(msg)

	case conversationsMsg:
		return m.handleConversations(msg)

	case historyLoadedMsg:
		if msg.err != nil {
			m.toasts.AddError("Failed to load conversation: " + msg.err.Error())
			return m, nil
		}
		if msg.conversationID == m.activeConversationID() {
			m.refreshViewport(true)
		}
		return m, nil
	}

	// Everything else (mouse wheel etc.) goes to the viewport.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true
	m.layout()
	m.refreshViewport(false)
	return m, nil
}

// layout recomputes pane sizes from the window size.
func (m *Model) layout() {
	// header + input + status bar
	const chromeRows = 3

	vpWidth := m.width
	if m.sidebarVisible {
		vpWidth -= sidebarWidth + 1
	}
	if vpWidth < 20 {
		vpWidth = 20
	}

	vpHeight := m.height - chromeRows
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.input.Width = m.width - 4

	wrap := vpWidth - 4
	if m.cfg.UI.WrapWidth > 0 && m.cfg.UI.WrapWidth < wrap {
		wrap = m.cfg.UI.WrapWidth
	}
	m.markdown.SetWidth(wrap)
}

// refreshViewport re-renders the active conversation into the viewport.
func (m *Model) refreshViewport(follow bool) {
	msgs := m.controller.Messages(m.activeConversationID())
	m.viewport.SetContent(m.renderConversation(msgs))
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// CONTROLLER EVENTS
// =============================================================================

func (m Model) handleControllerEvent(ev exchange.Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case exchange.MessagesUpdated:
		if ev.ConversationID != m.activeConversationID() {
			return m, nil
		}
		m.gate.Mark()
		return m, renderTickCmd()

	case exchange.ConversationsUpdated:
		m.clampSidebarIndex()
		return m, nil

	case exchange.ExchangeFinished:
		m.gate.TakeAll()
		m.refreshViewport(true)
		if m.state != nil && ev.ConversationID != model.LocalConversationID {
			m.state.SaveActiveConversation(m.cfg.API.AppID, ev.ConversationID)
		}
		return m, nil

	case exchange.ExchangeFailed:
		m.gate.TakeAll()
		m.refreshViewport(true)
		m.toasts.AddError(ev.Err.Error())
		return m, nil

	case exchange.ExchangeAborted:
		m.gate.TakeAll()
		m.refreshViewport(true)
		m.toasts.AddStatus("Response stopped")
		return m, nil

	case exchange.FeedbackFailed:
		m.toasts.AddWarning("Feedback not saved: " + ev.Err.Error())
		return m, nil
	}
	return m, nil
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

func (m Model) handleAppParams(msg appParamsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.toasts.AddError("Failed to load app parameters: " + msg.err.Error())
		return m, nil
	}
	m.controller.SetParams(msg.params)

	// The local conversation's opening statement depends on the params;
	// reload it if it is already showing.
	if m.activeConversationID() == model.LocalConversationID {
		return m, loadHistoryCmd(m.controller, model.LocalConversationID)
	}
	return m, nil
}

func (m Model) handleConversations(msg conversationsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.toasts.AddError("Failed to load conversations: " + msg.err.Error())
		// Fall through to a local conversation so the user can chat.
	} else {
		m.conversations.SetList(msg.conversations)
	}

	// Restore the previous selection, or start fresh.
	if m.state != nil {
		if saved, err := m.state.LoadActiveConversation(m.cfg.API.AppID); err == nil && saved != "" {
			if m.conversations.SetActive(saved) {
				m.clampSidebarIndex()
				return m, loadHistoryCmd(m.controller, saved)
			}
		}
	}

	m.startNewChat()
	return m, loadHistoryCmd(m.controller, model.LocalConversationID)
}

// startNewChat creates (or re-selects) the local conversation, restoring
// any saved prompt variable inputs.
func (m *Model) startNewChat() {
	var inputs map[string]string
	if m.state != nil {
		inputs, _ = m.state.LoadInputs(m.cfg.API.AppID, model.LocalConversationID)
	}
	m.conversations.StartLocal("New chat", "", inputs)
	m.clampSidebarIndex()
}

func (m *Model) clampSidebarIndex() {
	n := m.conversations.Len()
	if m.sidebarIndex >= n {
		m.sidebarIndex = n - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.controller.Abort()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.streaming() {
			m.controller.Abort()
			return m, nil
		}
		m.input.Reset()
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.sidebarVisible = !m.sidebarVisible
		if !m.sidebarVisible && m.focus == focusSidebar {
			m.setFocus(focusInput)
		}
		m.layout()
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.FocusNext):
		if m.sidebarVisible {
			if m.focus == focusInput {
				m.setFocus(focusSidebar)
			} else {
				m.setFocus(focusInput)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		m.startNewChat()
		m.setFocus(focusInput)
		return m, loadHistoryCmd(m.controller, model.LocalConversationID)

	case key.Matches(msg, m.keys.ToggleThoughts):
		m.showThoughts = !m.showThoughts
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.ToggleWorkflow):
		m.showWorkflow = !m.showWorkflow
		m.refreshViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.Like):
		return m.toggleFeedback(model.RatingLike)

	case key.Matches(msg, m.keys.Dislike):
		return m.toggleFeedback(model.RatingDislike)

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.sidebarIndex < m.conversations.Len()-1 {
			m.sidebarIndex++
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		list := m.conversations.List()
		if m.sidebarIndex >= len(list) {
			return m, nil
		}
		conv := list[m.sidebarIndex]
		if !m.conversations.SetActive(conv.ID) {
			return m, nil
		}
		if m.state != nil && !conv.IsLocal() {
			m.state.SaveActiveConversation(m.cfg.API.AppID, conv.ID)
		}
		m.setFocus(focusInput)
		return m, loadHistoryCmd(m.controller, conv.ID)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())

	if err := m.controller.Send(text, nil); err != nil {
		var missing *exchange.MissingInputsError
		switch {
		case errors.Is(err, exchange.ErrEmptyQuery):
			m.toasts.AddWarning("Type a message first")
		case errors.Is(err, exchange.ErrBusy):
			m.toasts.AddWarning("Wait for the current response to finish")
		case errors.As(err, &missing):
			m.toasts.AddWarning("Set required inputs first: " + strings.Join(missing.Names, ", "))
		case errors.Is(err, exchange.ErrNoConversation):
			m.startNewChat()
			m.toasts.AddStatus("Started a new chat, press Enter again to send")
		default:
			m.toasts.AddError(err.Error())
		}
		return m, nil
	}

	m.input.Reset()
	return m, renderTickCmd()
}

func (m Model) toggleFeedback(rating model.Rating) (tea.Model, tea.Cmd) {
	id := m.lastAnswerID()
	if id == "" {
		return m, nil
	}
	if err := m.controller.ToggleFeedback(m.activeConversationID(), id, rating); err != nil {
		m.toasts.AddStatus(err.Error())
		return m, nil
	}
	m.refreshViewport(false)
	return m, nil
}
