// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package appapi provides the HTTP client for the chat application API,
// including the SSE stream reader for chat responses.
package appapi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/dify-tui/internal/model"
)

// =============================================================================
// DEMO CLIENT
// =============================================================================

// DemoClient implements the API without a network. It backs the
// development bypass mode: conversations live in memory and chat
// responses echo the question as a simulated token stream.
type DemoClient struct {
	mu            sync.Mutex
	conversations []model.Conversation
	history       map[string][]*model.ChatMessage
	feedback      map[string]model.Rating

	// ChunkDelay paces the simulated stream; zero streams instantly.
	ChunkDelay time.Duration
}

var _ API = (*DemoClient)(nil)

// NewDemoClient creates a demo client seeded with one conversation.
func NewDemoClient() *DemoClient {
	seed := model.Conversation{
		ID:   uuid.New().String(),
		Name: "Getting started",
	}
	return &DemoClient{
		conversations: []model.Conversation{seed},
		history: map[string][]*model.ChatMessage{
			seed.ID: {},
		},
		feedback: map[string]model.Rating{},
	}
}

// FetchAppParams returns a fixed opening statement with one optional
// prompt variable so the input form path stays exercised in demo mode.
func (d *DemoClient) FetchAppParams(ctx context.Context) (*AppParams, error) {
	return &AppParams{
		OpeningStatement: "Hello {{name}}! This is a local demo session. Nothing you type leaves this machine.",
		PromptVariables: []model.PromptVariable{
			{Key: "name", Name: "Your name", Required: false},
		},
		SuggestedQuestions: []string{
			"What can you do?",
			"Show me a code block",
		},
	}, nil
}

// FetchConversations returns the in-memory conversation list.
func (d *DemoClient) FetchConversations(ctx context.Context) ([]model.Conversation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Conversation, len(d.conversations))
	copy(out, d.conversations)
	return out, nil
}

// FetchChatList returns the stored history of a conversation.
func (d *DemoClient) FetchChatList(ctx context.Context, conversationID string) ([]*model.ChatMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	msgs, ok := d.history[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]*model.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out, nil
}

// GenerateConversationName derives a name from the first question.
func (d *DemoClient) GenerateConversationName(ctx context.Context, conversationID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.conversations {
		if d.conversations[i].ID != conversationID {
			continue
		}
		name := "New chat"
		for _, m := range d.history[conversationID] {
			if !m.IsAnswer && m.Content != "" {
				name = firstWords(m.Content, 5)
				break
			}
		}
		d.conversations[i].Name = name
		return name, nil
	}
	return "", ErrNotFound
}

// SubmitFeedback records the rating in memory.
func (d *DemoClient) SubmitFeedback(ctx context.Context, messageID string, rating model.Rating) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rating == model.RatingNone {
		delete(d.feedback, messageID)
	} else {
		d.feedback[messageID] = rating
	}
	return nil
}

// SendChatMessage simulates a streamed answer that echoes the question.
// It emits the same event sequence the real API produces so the exchange
// fold sees identical shapes in demo mode.
func (d *DemoClient) SendChatMessage(ctx context.Context, req ChatRequest, callback StreamCallback) error {
	d.mu.Lock()
	convID := req.ConversationID
	if convID == "" {
		convID = uuid.New().String()
		d.conversations = append([]model.Conversation{{ID: convID, Name: "New chat"}}, d.conversations...)
		d.history[convID] = []*model.ChatMessage{}
	}
	msgID := uuid.New().String()
	taskID := uuid.New().String()
	d.mu.Unlock()

	answer := "You said: " + req.Query
	for _, word := range strings.SplitAfter(answer, " ") {
		if err := ctx.Err(); err != nil {
			return err
		}
		callback(StreamEvent{
			Event:          EventMessage,
			TaskID:         taskID,
			MessageID:      msgID,
			ConversationID: convID,
			Answer:         word,
		})
		if d.ChunkDelay > 0 {
			select {
			case <-time.After(d.ChunkDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	callback(StreamEvent{
		Event:          EventMessageEnd,
		TaskID:         taskID,
		MessageID:      msgID,
		ConversationID: convID,
	})

	d.mu.Lock()
	now := time.Now()
	d.history[convID] = append(d.history[convID],
		&model.ChatMessage{ID: "question-" + msgID, Content: req.Query, Timestamp: now},
		&model.ChatMessage{ID: msgID, Content: answer, IsAnswer: true, Timestamp: now},
	)
	d.mu.Unlock()

	return nil
}

// firstWords returns up to n leading words of s.
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
