// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"sync"

	"github.com/jeranaias/dify-tui/internal/model"
)

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList is the ordered message history of one conversation.
// Mutation goes through Update so concurrent readers only ever see a
// message via Snapshot clones.
type MessageList struct {
	mu       sync.RWMutex
	messages []*model.ChatMessage
}

// NewMessageList creates an empty list.
func NewMessageList() *MessageList {
	return &MessageList{}
}

// Load replaces the list contents.
func (l *MessageList) Load(messages []*model.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append([]*model.ChatMessage(nil), messages...)
}

// Append adds a message at the end.
func (l *MessageList) Append(m *model.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
}

// Remove deletes the message with the given id. Returns false if absent.
func (l *MessageList) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, m := range l.messages {
		if m.ID == id {
			l.messages = append(l.messages[:i], l.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Update applies fn to the message with the given id under the lock.
// Returns false if no such message exists.
func (l *MessageList) Update(id string, fn func(*model.ChatMessage)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.ID == id {
			fn(m)
			return true
		}
	}
	return false
}

// UpdateLast applies fn to the last message. Returns false when empty.
func (l *MessageList) UpdateLast(fn func(*model.ChatMessage)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.messages) == 0 {
		return false
	}
	fn(l.messages[len(l.messages)-1])
	return true
}

// Len returns the number of messages.
func (l *MessageList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Snapshot returns deep copies of all messages in order.
func (l *MessageList) Snapshot() []*model.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*model.ChatMessage, len(l.messages))
	for i, m := range l.messages {
		out[i] = m.Clone()
	}
	return out
}

// Feedback returns the rating of the message with the given id.
func (l *MessageList) Feedback(id string) model.Rating {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, m := range l.messages {
		if m.ID == id {
			if m.Feedback == nil {
				return model.RatingNone
			}
			return m.Feedback.Rating
		}
	}
	return model.RatingNone
}
