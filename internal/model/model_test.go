// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestNewQuestionID(t *testing.T) {
	q := NewQuestion("hello", nil)
	if !strings.HasPrefix(q.ID, "question-") {
		t.Errorf("question id %q missing prefix", q.ID)
	}
	if q.IsAnswer {
		t.Error("question must not be an answer")
	}
	if q.Content != "hello" {
		t.Errorf("content = %q", q.Content)
	}
}

func TestNewPlaceholderAnswerID(t *testing.T) {
	p := NewPlaceholderAnswer()
	if !strings.HasPrefix(p.ID, "answer-placeholder-") {
		t.Errorf("placeholder id %q missing prefix", p.ID)
	}
	if !p.IsAnswer || p.Content != "" {
		t.Error("placeholder must be an empty answer")
	}
}

func TestLocalIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := NewQuestion("x", nil).ID
		if seen[id] {
			t.Fatalf("duplicate local id %q", id)
		}
		seen[id] = true
	}
}

func TestReplaceVars(t *testing.T) {
	vars := []PromptVariable{{Key: "name"}, {Key: "topic"}}
	inputs := map[string]string{"name": "Ada", "topic": "compilers"}

	got := ReplaceVars("Hi {{name}}, ask me about {{topic}}.", vars, inputs)
	want := "Hi Ada, ask me about compilers."
	if got != want {
		t.Errorf("ReplaceVars = %q, want %q", got, want)
	}

	// Unknown markers stay untouched.
	got = ReplaceVars("{{name}} and {{unknown}}", vars, inputs)
	if got != "Ada and {{unknown}}" {
		t.Errorf("ReplaceVars = %q", got)
	}
}

func TestOpeningStatement(t *testing.T) {
	msg := OpeningStatement("Welcome, {{name}}!", []PromptVariable{{Key: "name"}}, map[string]string{"name": "Ada"})
	if msg == nil {
		t.Fatal("expected opening statement")
	}
	if msg.Content != "Welcome, Ada!" {
		t.Errorf("content = %q", msg.Content)
	}
	if !msg.IsOpeningStatement || !msg.FeedbackDisabled || !msg.IsAnswer {
		t.Error("opening statement flags wrong")
	}

	if OpeningStatement("", nil, nil) != nil {
		t.Error("empty introduction must yield no opening statement")
	}
}

func TestMissingRequiredInputs(t *testing.T) {
	vars := []PromptVariable{
		{Key: "a", Name: "Alpha", Required: true},
		{Key: "b", Name: "Beta", Required: false},
		{Key: "c", Required: true},
	}
	missing := MissingRequiredInputs(vars, map[string]string{"a": "set"})
	if len(missing) != 1 || missing[0] != "c" {
		t.Errorf("missing = %v", missing)
	}

	missing = MissingRequiredInputs(vars, map[string]string{"a": "x", "c": "y"})
	if missing != nil {
		t.Errorf("expected no missing inputs, got %v", missing)
	}
}

func TestChatMessageClone(t *testing.T) {
	orig := NewPendingAnswer()
	orig.Content = "body"
	orig.AgentThoughts = append(orig.AgentThoughts, &AgentThought{ID: "t1", Thought: "think"})
	orig.Workflow = &WorkflowProcess{
		RunID:   "run",
		Status:  WorkflowRunning,
		Tracing: []WorkflowNode{{NodeID: "n1", Status: WorkflowRunning}},
	}

	clone := orig.Clone()

	clone.AgentThoughts[0].Thought = "changed"
	clone.Workflow.Tracing[0].Status = WorkflowSucceeded
	clone.Content = "other"

	if orig.AgentThoughts[0].Thought != "think" {
		t.Error("clone aliases thought segments")
	}
	if orig.Workflow.Tracing[0].Status != WorkflowRunning {
		t.Error("clone aliases workflow trace")
	}
	if orig.Content != "body" {
		t.Error("clone aliases content")
	}
}

func TestLastThought(t *testing.T) {
	m := NewPendingAnswer()
	if m.LastThought() != nil {
		t.Error("empty message has no last thought")
	}
	m.AgentThoughts = append(m.AgentThoughts, &AgentThought{ID: "t1"}, &AgentThought{ID: "t2"})
	if got := m.LastThought(); got == nil || got.ID != "t2" {
		t.Errorf("LastThought = %+v", got)
	}
}
