// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package appapi provides the HTTP client for the chat application API,
// including the SSE stream reader for chat responses.
package appapi

import (
	"encoding/json"

	"github.com/jeranaias/dify-tui/internal/model"
)

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventType discriminates the events carried on a chat SSE stream.
// The set is closed: unknown event names are dropped by the reader.
type EventType string

const (
	// EventMessage carries an answer text delta.
	EventMessage EventType = "message"
	// EventAgentMessage carries an answer text delta in agent mode.
	EventAgentMessage EventType = "agent_message"
	// EventAgentThought carries a reasoning segment; the first one on a
	// stream switches the exchange into agent mode for good.
	EventAgentThought EventType = "agent_thought"
	// EventMessageFile attaches a file to the answer.
	EventMessageFile EventType = "message_file"
	// EventMessageEnd terminates the stream normally.
	EventMessageEnd EventType = "message_end"
	// EventMessageReplace replaces the entire answer content.
	EventMessageReplace EventType = "message_replace"
	// EventError terminates the stream with a server-reported error.
	EventError EventType = "error"

	EventWorkflowStarted  EventType = "workflow_started"
	EventNodeStarted      EventType = "node_started"
	EventNodeFinished     EventType = "node_finished"
	EventWorkflowFinished EventType = "workflow_finished"

	// EventPing is a keepalive and carries no payload.
	EventPing EventType = "ping"
)

// StreamEvent is one parsed event from a chat SSE stream. Only the fields
// relevant to the Event kind are populated.
type StreamEvent struct {
	Event EventType

	// Identity fields, present on most events.
	TaskID         string
	MessageID      string
	ConversationID string

	// EventMessage / EventAgentMessage delta, or the full replacement
	// content for EventMessageReplace.
	Answer string

	// EventAgentThought payload.
	Thought *model.AgentThought

	// EventMessageFile payload.
	File *model.MessageFile

	// Workflow payloads.
	WorkflowRunID  string
	WorkflowStatus model.WorkflowStatus
	Node           *model.WorkflowNode

	// EventError payload.
	Code    string
	Message string
}

// rawEvent is the wire shape of a stream event before conversion.
type rawEvent struct {
	Event          string `json:"event"`
	TaskID         string `json:"task_id"`
	ID             string `json:"id"`
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	Answer         string `json:"answer"`

	// agent_thought fields
	Position    int    `json:"position"`
	Thought     string `json:"thought"`
	Tool        string `json:"tool"`
	ToolInput   string `json:"tool_input"`
	Observation string `json:"observation"`

	// message_file fields
	Type      string `json:"type"`
	URL       string `json:"url"`
	BelongsTo string `json:"belongs_to"`

	// workflow fields
	WorkflowRunID string          `json:"workflow_run_id"`
	Data          json.RawMessage `json:"data"`

	// error fields
	Code    string `json:"code"`
	Message string `json:"message"`
}

// workflowData is the "data" object of workflow and node events.
type workflowData struct {
	ID       string `json:"id"`
	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
	Title    string `json:"title"`
	Index    int    `json:"index"`
	Status   string `json:"status"`
	Error    string `json:"error"`
}

// =============================================================================
// REQUESTS AND RESPONSES
// =============================================================================

// ChatRequest is the payload of a streaming chat message.
type ChatRequest struct {
	Query  string            `json:"query"`
	Inputs map[string]string `json:"inputs"`
	// ConversationID is empty for the first turn of a local conversation;
	// the server assigns one and reports it on the stream.
	ConversationID string              `json:"conversation_id,omitempty"`
	Files          []model.MessageFile `json:"files,omitempty"`
	ResponseMode   string              `json:"response_mode"`
}

// AppParams is the app configuration fetched at startup: the opening
// statement template and the user input form it draws variables from.
type AppParams struct {
	OpeningStatement   string                 `json:"opening_statement"`
	PromptVariables    []model.PromptVariable `json:"-"`
	SuggestedQuestions []string               `json:"suggested_questions"`
}

// appParamsResponse is the wire shape of GET /parameters. The user input
// form is a list of single-key objects keyed by control type.
type appParamsResponse struct {
	OpeningStatement   string   `json:"opening_statement"`
	SuggestedQuestions []string `json:"suggested_questions"`
	UserInputForm      []map[string]struct {
		Key      string `json:"variable"`
		Name     string `json:"label"`
		Required bool   `json:"required"`
	} `json:"user_input_form"`
}

// conversationsResponse is the wire shape of GET /conversations.
type conversationsResponse struct {
	Data []struct {
		ID           string            `json:"id"`
		Name         string            `json:"name"`
		Introduction string            `json:"introduction"`
		Inputs       map[string]string `json:"inputs"`
	} `json:"data"`
}

// chatListResponse is the wire shape of GET /messages. Each item is one
// query/answer exchange that the client splits into two messages.
type chatListResponse struct {
	Data []struct {
		ID            string                `json:"id"`
		Query         string                `json:"query"`
		Answer        string                `json:"answer"`
		Feedback      *model.Feedback       `json:"feedback"`
		AgentThoughts []*model.AgentThought `json:"agent_thoughts"`
		MessageFiles  []model.MessageFile   `json:"message_files"`
		CreatedAt     int64                 `json:"created_at"`
	} `json:"data"`
}

// renameResponse is the wire shape of the auto-rename endpoint.
type renameResponse struct {
	Name string `json:"name"`
}

// apiError is the error body returned on non-2xx responses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
