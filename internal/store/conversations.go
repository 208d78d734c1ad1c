// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds client-side conversation state: the ordered
// conversation list with its active selection, and the persisted
// application state that survives restarts.
package store

import (
	"sync"

	"github.com/jeranaias/dify-tui/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore is the ordered conversation list plus the active
// selection. Server-known conversations are ordered most recent first; a
// local conversation, when present, sits at the head of the list.
//
// Invariant: at most one conversation carries the local sentinel id at
// any time. StartLocal is idempotent while one exists.
//
// All methods are safe for concurrent use.
type ConversationStore struct {
	mu       sync.RWMutex
	list     []model.Conversation
	activeID string
}

// NewConversationStore creates an empty store with no active selection.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{}
}

// SetList replaces the server-known conversations, keeping a leading
// local conversation in place if one exists. The active selection is
// preserved when it still resolves, otherwise cleared.
func (s *ConversationStore) SetList(conversations []model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next []model.Conversation
	if len(s.list) > 0 && s.list[0].IsLocal() {
		next = append(next, s.list[0])
	}
	next = append(next, conversations...)
	s.list = next

	if s.activeID != "" && s.findLocked(s.activeID) == nil {
		s.activeID = ""
	}
}

// List returns a copy of the conversation list in display order.
func (s *ConversationStore) List() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Conversation, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of conversations.
func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list)
}

// Get returns the conversation with the given id, or nil.
func (s *ConversationStore) Get(id string) *model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.findLocked(id); c != nil {
		clone := *c
		return &clone
	}
	return nil
}

func (s *ConversationStore) findLocked(id string) *model.Conversation {
	for i := range s.list {
		if s.list[i].ID == id {
			return &s.list[i]
		}
	}
	return nil
}

// =============================================================================
// ACTIVE SELECTION
// =============================================================================

// ActiveID returns the id of the selected conversation, or "".
func (s *ConversationStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns the selected conversation, or nil.
func (s *ConversationStore) Active() *model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.findLocked(s.activeID); c != nil {
		clone := *c
		return &clone
	}
	return nil
}

// SetActive selects the conversation with the given id. Returns false if
// no such conversation exists; the selection is left unchanged.
func (s *ConversationStore) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) == nil {
		return false
	}
	s.activeID = id
	return true
}

// =============================================================================
// LOCAL CONVERSATION
// =============================================================================

// HasLocal reports whether a local conversation exists.
func (s *ConversationStore) HasLocal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.list) > 0 && s.list[0].IsLocal()
}

// StartLocal creates the local conversation at the head of the list and
// selects it. If one already exists this only moves the selection, so
// repeated "new chat" actions never produce a second local entry.
func (s *ConversationStore) StartLocal(name, introduction string, inputs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.list) > 0 && s.list[0].IsLocal() {
		s.activeID = model.LocalConversationID
		return
	}

	local := model.Conversation{
		ID:           model.LocalConversationID,
		Name:         name,
		Introduction: introduction,
		Inputs:       inputs,
	}
	s.list = append([]model.Conversation{local}, s.list...)
	s.activeID = model.LocalConversationID
}

// RemoveLocal drops the local conversation if present. If it was active
// the selection is cleared.
func (s *ConversationStore) RemoveLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.list) == 0 || !s.list[0].IsLocal() {
		return
	}
	s.list = s.list[1:]
	if s.activeID == model.LocalConversationID {
		s.activeID = ""
	}
}

// SetLocalInputs stores the user's prompt variable values on the local
// conversation.
func (s *ConversationStore) SetLocalInputs(inputs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.list) > 0 && s.list[0].IsLocal() {
		s.list[0].Inputs = inputs
	}
}

// =============================================================================
// MUTATION
// =============================================================================

// Upsert inserts a conversation after any local head if it is missing,
// or refreshes its fields in place if present.
func (s *ConversationStore) Upsert(conv model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findLocked(conv.ID); existing != nil {
		*existing = conv
		return
	}

	pos := 0
	if len(s.list) > 0 && s.list[0].IsLocal() {
		pos = 1
	}
	s.list = append(s.list[:pos], append([]model.Conversation{conv}, s.list[pos:]...)...)
}

// Rename updates the display name of a conversation in place.
func (s *ConversationStore) Rename(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.findLocked(id); c != nil {
		c.Name = name
		return true
	}
	return false
}
