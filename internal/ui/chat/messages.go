// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dify-tui/internal/appapi"
	"github.com/jeranaias/dify-tui/internal/exchange"
	"github.com/jeranaias/dify-tui/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ControllerMsg wraps an exchange controller event for the update loop.
// The controller emits from background goroutines; program.Send delivers
// them here.
type ControllerMsg struct {
	Event exchange.Event
}

// appParamsMsg carries the app bootstrap result.
type appParamsMsg struct {
	params *appapi.AppParams
	err    error
}

// conversationsMsg carries the initial conversation list.
type conversationsMsg struct {
	conversations []model.Conversation
	err           error
}

// historyLoadedMsg reports a LoadHistory result.
type historyLoadedMsg struct {
	conversationID string
	err            error
}

// RenderTickMsg paces streaming re-renders.
type RenderTickMsg struct {
	Time time.Time
}

// =============================================================================
// COMMANDS
// =============================================================================

func fetchAppParamsCmd(api appapi.API) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		params, err := api.FetchAppParams(ctx)
		return appParamsMsg{params: params, err: err}
	}
}

func fetchConversationsCmd(api appapi.API) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		conversations, err := api.FetchConversations(ctx)
		return conversationsMsg{conversations: conversations, err: err}
	}
}

func loadHistoryCmd(controller *exchange.Controller, conversationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := controller.LoadHistory(ctx, conversationID)
		return historyLoadedMsg{conversationID: conversationID, err: err}
	}
}

// renderTickCmd schedules the next streaming render frame.
func renderTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return RenderTickMsg{Time: t}
	})
}
