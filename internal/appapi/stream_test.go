// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package appapi

import (
	"context"
	"strings"
	"testing"

	"github.com/jeranaias/dify-tui/internal/model"
)

func collectEvents(t *testing.T, body string) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	reader := NewStreamReader(strings.NewReader(body))
	err := reader.Process(context.Background(), func(ev StreamEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return events
}

func TestStreamReaderMessageSequence(t *testing.T) {
	body := "data: {\"event\":\"message\",\"task_id\":\"t1\",\"message_id\":\"m1\",\"conversation_id\":\"c1\",\"answer\":\"Hel\"}\n" +
		"\n" +
		"data: {\"event\":\"message\",\"task_id\":\"t1\",\"message_id\":\"m1\",\"conversation_id\":\"c1\",\"answer\":\"lo\"}\n" +
		"\n" +
		"data: {\"event\":\"message_end\",\"task_id\":\"t1\",\"id\":\"m1\",\"conversation_id\":\"c1\"}\n"

	events := collectEvents(t, body)
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Event != EventMessage || events[0].Answer != "Hel" {
		t.Errorf("event 0 = %+v", events[0])
	}
	if events[1].Answer != "lo" {
		t.Errorf("event 1 answer = %q", events[1].Answer)
	}
	if events[2].Event != EventMessageEnd || events[2].MessageID != "m1" {
		t.Errorf("event 2 = %+v", events[2])
	}
}

func TestStreamReaderSkipsPingAndUnknown(t *testing.T) {
	body := "data: {\"event\":\"ping\"}\n" +
		": comment line\n" +
		"event: message\n" +
		"data: {\"event\":\"something_new\",\"answer\":\"x\"}\n" +
		"data: not json at all\n" +
		"data: {\"event\":\"message\",\"message_id\":\"m1\",\"answer\":\"ok\"}\n"

	events := collectEvents(t, body)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Answer != "ok" {
		t.Errorf("answer = %q", events[0].Answer)
	}
}

func TestStreamReaderStopsOnErrorEvent(t *testing.T) {
	body := "data: {\"event\":\"error\",\"code\":\"quota_exceeded\",\"message\":\"quota exceeded\"}\n" +
		"data: {\"event\":\"message\",\"answer\":\"never seen\"}\n"

	events := collectEvents(t, body)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Event != EventError || events[0].Code != "quota_exceeded" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestStreamReaderAgentThought(t *testing.T) {
	body := "data: {\"event\":\"agent_thought\",\"id\":\"th1\",\"message_id\":\"m1\",\"position\":1,\"thought\":\"searching\",\"tool\":\"web\",\"tool_input\":\"{\\\"q\\\":\\\"go\\\"}\"}\n"

	events := collectEvents(t, body)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	th := events[0].Thought
	if th == nil {
		t.Fatal("expected thought payload")
	}
	if th.ID != "th1" || th.Thought != "searching" || th.Tool != "web" || th.Position != 1 {
		t.Errorf("thought = %+v", th)
	}
	if events[0].MessageID != "m1" {
		t.Errorf("message id = %q", events[0].MessageID)
	}
}

func TestStreamReaderWorkflowEvents(t *testing.T) {
	body := "data: {\"event\":\"workflow_started\",\"workflow_run_id\":\"run1\",\"data\":{\"id\":\"run1\"}}\n" +
		"data: {\"event\":\"node_started\",\"workflow_run_id\":\"run1\",\"data\":{\"id\":\"e1\",\"node_id\":\"n1\",\"node_type\":\"llm\",\"title\":\"LLM\",\"index\":0}}\n" +
		"data: {\"event\":\"node_finished\",\"workflow_run_id\":\"run1\",\"data\":{\"id\":\"e1\",\"node_id\":\"n1\",\"status\":\"succeeded\"}}\n" +
		"data: {\"event\":\"workflow_finished\",\"workflow_run_id\":\"run1\",\"data\":{\"id\":\"run1\",\"status\":\"succeeded\"}}\n"

	events := collectEvents(t, body)
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].Event != EventWorkflowStarted || events[0].WorkflowStatus != model.WorkflowRunning {
		t.Errorf("started = %+v", events[0])
	}
	if events[1].Node == nil || events[1].Node.Status != model.WorkflowRunning || events[1].Node.NodeID != "n1" {
		t.Errorf("node_started = %+v", events[1].Node)
	}
	if events[2].Node == nil || events[2].Node.Status != model.WorkflowSucceeded {
		t.Errorf("node_finished = %+v", events[2].Node)
	}
	if events[3].WorkflowStatus != model.WorkflowSucceeded {
		t.Errorf("finished status = %q", events[3].WorkflowStatus)
	}
}

func TestStreamReaderMessageReplace(t *testing.T) {
	body := "data: {\"event\":\"message_replace\",\"message_id\":\"m1\",\"answer\":\"replacement text\"}\n" +
		"data: {\"event\":\"message_end\",\"id\":\"m1\"}\n"

	events := collectEvents(t, body)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Event != EventMessageReplace || events[0].Answer != "replacement text" {
		t.Errorf("replace = %+v", events[0])
	}
}

func TestStreamReaderContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewStreamReader(strings.NewReader("data: {\"event\":\"message\",\"answer\":\"x\"}\n"))
	err := reader.Process(ctx, func(ev StreamEvent) {
		t.Error("callback must not run after cancel")
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
