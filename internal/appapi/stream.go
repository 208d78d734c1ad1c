// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package appapi provides the HTTP client for the chat application API,
// including the SSE stream reader for chat responses.
package appapi

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/jeranaias/dify-tui/internal/model"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader parses server-sent events from a chat response body.
// Each event arrives as a "data: {json}" line; blank lines separate events.
type StreamReader struct {
	reader     *bufio.Reader
	eventCount int
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each event.
// Blocks until the stream ends, an error event arrives, or the context is
// cancelled. The callback runs synchronously in arrival order.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			ev, err := s.readEvent()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if ev != nil {
				callback(*ev)
				if ev.Event == EventMessageEnd || ev.Event == EventError {
					return nil
				}
			}
		}
	}
}

// readEvent reads and parses a single SSE line from the stream.
// Returns (nil, nil) for lines that carry no event: blanks, comments,
// keepalive pings, unknown event names, and malformed payloads.
func (s *StreamReader) readEvent() (*StreamEvent, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && strings.TrimSpace(line) == "" {
			return nil, io.EOF
		}
		if strings.TrimSpace(line) == "" {
			return nil, err
		}
	}

	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ":") {
		return nil, nil
	}

	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		// "event:" and "id:" fields are redundant with the payload.
		return nil, nil
	}
	data = strings.TrimSpace(data)

	var raw rawEvent
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	ev := convertEvent(&raw)
	if ev == nil {
		return nil, nil
	}

	s.eventCount++
	return ev, nil
}

// EventCount returns the number of events delivered so far.
func (s *StreamReader) EventCount() int {
	return s.eventCount
}

// =============================================================================
// EVENT CONVERSION
// =============================================================================

// convertEvent maps a raw wire event onto the closed StreamEvent set.
// Returns nil for pings and unknown event names.
func convertEvent(raw *rawEvent) *StreamEvent {
	ev := &StreamEvent{
		Event:          EventType(raw.Event),
		TaskID:         raw.TaskID,
		ConversationID: raw.ConversationID,
		MessageID:      raw.MessageID,
	}
	if ev.MessageID == "" {
		ev.MessageID = raw.ID
	}

	switch ev.Event {
	case EventMessage, EventAgentMessage, EventMessageReplace:
		ev.Answer = raw.Answer

	case EventAgentThought:
		ev.Thought = &model.AgentThought{
			ID:          raw.ID,
			MessageID:   raw.MessageID,
			Position:    raw.Position,
			Thought:     raw.Thought,
			Tool:        raw.Tool,
			ToolInput:   raw.ToolInput,
			Observation: raw.Observation,
		}
		// The thought id is its own identity, not the message id.
		ev.MessageID = raw.MessageID

	case EventMessageFile:
		ev.File = &model.MessageFile{
			ID:        raw.ID,
			Type:      raw.Type,
			URL:       raw.URL,
			BelongsTo: raw.BelongsTo,
		}
		ev.MessageID = raw.MessageID

	case EventMessageEnd:
		// Identity fields only.

	case EventError:
		ev.Code = raw.Code
		ev.Message = raw.Message

	case EventWorkflowStarted, EventWorkflowFinished:
		ev.WorkflowRunID = raw.WorkflowRunID
		var data workflowData
		if len(raw.Data) > 0 {
			if err := json.Unmarshal(raw.Data, &data); err == nil {
				if ev.WorkflowRunID == "" {
					ev.WorkflowRunID = data.ID
				}
				ev.WorkflowStatus = model.WorkflowStatus(data.Status)
			}
		}
		if ev.Event == EventWorkflowStarted && ev.WorkflowStatus == "" {
			ev.WorkflowStatus = model.WorkflowRunning
		}

	case EventNodeStarted, EventNodeFinished:
		ev.WorkflowRunID = raw.WorkflowRunID
		var data workflowData
		if len(raw.Data) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return nil
		}
		status := model.WorkflowStatus(data.Status)
		if ev.Event == EventNodeStarted {
			status = model.WorkflowRunning
		}
		ev.Node = &model.WorkflowNode{
			ID:       data.ID,
			NodeID:   data.NodeID,
			NodeType: data.NodeType,
			Title:    data.Title,
			Index:    data.Index,
			Status:   status,
			Error:    data.Error,
		}

	case EventPing:
		return nil

	default:
		return nil
	}

	return ev
}
