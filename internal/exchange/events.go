// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Event is a notification the Controller emits toward the UI.
// Events are emitted outside the controller's lock, in order.
type Event interface {
	isEvent()
}

// Notifier receives controller events. A nil notifier discards them.
type Notifier func(Event)

// MessagesUpdated reports that a conversation's message list changed.
type MessagesUpdated struct {
	ConversationID string
}

// ConversationsUpdated reports that the conversation list changed.
type ConversationsUpdated struct{}

// ExchangeFinished reports that an exchange completed normally.
// ConversationID is the server id after a local promotion.
type ExchangeFinished struct {
	ConversationID string
}

// ExchangeFailed reports that an exchange ended in error after the
// placeholder rollback was applied.
type ExchangeFailed struct {
	ConversationID string
	Err            error
}

// ExchangeAborted reports that the user cancelled an exchange after the
// placeholder rollback was applied. The question stays in the list.
type ExchangeAborted struct {
	ConversationID string
}

// FeedbackFailed reports that a feedback submission did not persist.
// The optimistic rating stays in place.
type FeedbackFailed struct {
	MessageID string
	Err       error
}

func (MessagesUpdated) isEvent()      {}
func (ConversationsUpdated) isEvent() {}
func (ExchangeFinished) isEvent()     {}
func (ExchangeFailed) isEvent()       {}
func (ExchangeAborted) isEvent()      {}
func (FeedbackFailed) isEvent()       {}
