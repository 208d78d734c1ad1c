// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strconv"
	"sync/atomic"
	"time"
)

// =============================================================================
// FEEDBACK
// =============================================================================

// Rating is the tri-state per-answer feedback value.
type Rating string

const (
	RatingLike    Rating = "like"
	RatingDislike Rating = "dislike"
	// RatingNone clears a previously submitted rating.
	RatingNone Rating = ""
)

// Feedback is the rating attached to an answer message.
type Feedback struct {
	Rating Rating `json:"rating"`
}

// =============================================================================
// FILES AND THOUGHTS
// =============================================================================

// MessageFile is a file attached to a message (image output, upload, ...).
type MessageFile struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	BelongsTo string `json:"belongs_to"` // "user" or "assistant"
}

// AgentThought is one reasoning segment of an agent-mode answer.
// In agent mode streamed answer text accumulates on the latest thought,
// never on the message's top-level content.
type AgentThought struct {
	ID          string        `json:"id"`
	MessageID   string        `json:"message_id"`
	Position    int           `json:"position"`
	Thought     string        `json:"thought"`
	Tool        string        `json:"tool,omitempty"`
	ToolInput   string        `json:"tool_input,omitempty"`
	Observation string        `json:"observation,omitempty"`
	Files       []MessageFile `json:"message_files,omitempty"`
}

// =============================================================================
// WORKFLOW TRACE
// =============================================================================

// WorkflowStatus mirrors the run status reported by the workflow engine.
type WorkflowStatus string

const (
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowSucceeded WorkflowStatus = "succeeded"
	WorkflowFailed    WorkflowStatus = "failed"
	WorkflowStopped   WorkflowStatus = "stopped"
)

// WorkflowNode is the state of a single node in a workflow run.
// Node identity is NodeID; a finished event updates the entry in place.
type WorkflowNode struct {
	ID       string         `json:"id"`
	NodeID   string         `json:"node_id"`
	NodeType string         `json:"node_type"`
	Title    string         `json:"title"`
	Index    int            `json:"index"`
	Status   WorkflowStatus `json:"status"`
	Error    string         `json:"error,omitempty"`
}

// WorkflowProcess is the ordered trace of a workflow run attached to an
// answer message while (and after) the run executes.
type WorkflowProcess struct {
	RunID   string         `json:"workflow_run_id"`
	Status  WorkflowStatus `json:"status"`
	Tracing []WorkflowNode `json:"tracing"`
}

// =============================================================================
// CHAT MESSAGE
// =============================================================================

// ChatMessage is a single turn in a conversation: a user question
// (IsAnswer=false) or a system answer (IsAnswer=true).
type ChatMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`

	IsAnswer bool `json:"isAnswer"`

	// Answer-only fields
	Feedback           *Feedback        `json:"feedback,omitempty"`
	FeedbackDisabled   bool             `json:"feedbackDisabled,omitempty"`
	IsOpeningStatement bool             `json:"isOpeningStatement,omitempty"`
	AgentThoughts      []*AgentThought  `json:"agent_thoughts,omitempty"`
	Workflow           *WorkflowProcess `json:"workflowProcess,omitempty"`

	// Files shown with the message (question uploads or answer outputs).
	MessageFiles []MessageFile `json:"message_files,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewQuestion creates a user question with a local "question-<ts>" id.
func NewQuestion(content string, files []MessageFile) *ChatMessage {
	return &ChatMessage{
		ID:           "question-" + nextLocalID(),
		Content:      content,
		IsAnswer:     false,
		MessageFiles: files,
		Timestamp:    time.Now(),
	}
}

// NewPlaceholderAnswer creates the empty answer inserted at send time.
// It is removed exactly when the streamed answer is installed, or rolled
// back entirely on a stream error.
func NewPlaceholderAnswer() *ChatMessage {
	return &ChatMessage{
		ID:        "answer-placeholder-" + nextLocalID(),
		Content:   "",
		IsAnswer:  true,
		Timestamp: time.Now(),
	}
}

// NewPendingAnswer creates the answer message an exchange folds stream
// events into. Its local id is replaced by the first server-issued message
// id seen on the stream.
func NewPendingAnswer() *ChatMessage {
	return &ChatMessage{
		ID:            nextLocalID(),
		Content:       "",
		IsAnswer:      true,
		AgentThoughts: []*AgentThought{},
		MessageFiles:  []MessageFile{},
		Timestamp:     time.Now(),
	}
}

// LastThought returns the most recently appended thought segment, or nil.
func (m *ChatMessage) LastThought() *AgentThought {
	if len(m.AgentThoughts) == 0 {
		return nil
	}
	return m.AgentThoughts[len(m.AgentThoughts)-1]
}

// Clone returns a deep copy of the message. Fold steps publish clones so
// the UI never aliases the exchange's working state.
func (m *ChatMessage) Clone() *ChatMessage {
	clone := *m

	if m.Feedback != nil {
		fb := *m.Feedback
		clone.Feedback = &fb
	}
	if m.AgentThoughts != nil {
		clone.AgentThoughts = make([]*AgentThought, len(m.AgentThoughts))
		for i, th := range m.AgentThoughts {
			t := *th
			t.Files = append([]MessageFile(nil), th.Files...)
			clone.AgentThoughts[i] = &t
		}
	}
	if m.Workflow != nil {
		wf := *m.Workflow
		wf.Tracing = append([]WorkflowNode(nil), m.Workflow.Tracing...)
		clone.Workflow = &wf
	}
	clone.MessageFiles = append([]MessageFile(nil), m.MessageFiles...)

	return &clone
}

// =============================================================================
// LOCAL ID GENERATION
// =============================================================================

// localIDSeq disambiguates ids minted within the same millisecond.
var localIDSeq atomic.Uint64

// nextLocalID returns a monotonically unique timestamp-based id.
func nextLocalID() string {
	seq := localIDSeq.Add(1)
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + strconv.FormatUint(seq%1000, 10)
}
