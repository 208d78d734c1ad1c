// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file renders conversation transcripts into viewport content.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/dify-tui/internal/model"
	"github.com/jeranaias/dify-tui/internal/ui/components"
	"github.com/jeranaias/dify-tui/internal/ui/styles"
	"github.com/jeranaias/dify-tui/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderConversation renders the message list into a single scrollable
// block for the viewport.
func (m *Model) renderConversation(msgs []*model.ChatMessage) string {
	if len(msgs) == 0 {
		return styles.Opening.Render("No messages yet. Type below to start the conversation.")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.IsAnswer {
			b.WriteString(m.renderAnswer(msg))
		} else {
			b.WriteString(m.renderQuestion(msg))
		}
	}
	return b.String()
}

func (m *Model) renderQuestion(msg *model.ChatMessage) string {
	content := msg.Content
	for _, f := range msg.MessageFiles {
		content += "\n[file: " + f.URL + "]"
	}
	return styles.Question.Render(content)
}

func (m *Model) renderAnswer(msg *model.ChatMessage) string {
	if msg.IsOpeningStatement {
		return styles.Opening.Render(msg.Content)
	}

	var parts []string

	if m.showWorkflow && msg.Workflow != nil {
		parts = append(parts, m.renderWorkflow(msg.Workflow))
	}

	if m.showThoughts {
		for _, th := range msg.AgentThoughts {
			if rendered := m.renderThought(th); rendered != "" {
				parts = append(parts, rendered)
			}
		}
	} else if agentMode(msg) {
		// Thoughts hidden: still show the accumulated answer text.
		var b strings.Builder
		for _, th := range msg.AgentThoughts {
			b.WriteString(th.Thought)
		}
		if b.Len() > 0 {
			parts = append(parts, m.markdown.Render(b.String()))
		}
	}

	if msg.Content != "" {
		parts = append(parts, m.markdown.Render(msg.Content))
	}

	for _, f := range msg.MessageFiles {
		parts = append(parts, styles.Thought.Render("[file: "+f.URL+"]"))
	}

	if len(parts) == 0 {
		// Placeholder answer while the first chunk is in flight.
		parts = append(parts, m.spinner.View()+" thinking...")
	}

	body := strings.Join(parts, "\n")
	if marker := feedbackMarker(msg); marker != "" {
		body += "\n" + marker
	}
	return styles.Answer.Render(body)
}

// agentMode reports whether the answer streams through thought segments.
func agentMode(msg *model.ChatMessage) bool {
	return len(msg.AgentThoughts) > 0
}

func feedbackMarker(msg *model.ChatMessage) string {
	if msg.Feedback == nil {
		return ""
	}
	switch msg.Feedback.Rating {
	case model.RatingLike:
		return styles.Feedback.Render("▲ liked")
	case model.RatingDislike:
		return styles.FeedbackNegative.Render("▼ disliked")
	}
	return ""
}

// =============================================================================
// AGENT THOUGHTS
// =============================================================================

func (m *Model) renderThought(th *model.AgentThought) string {
	var b strings.Builder

	if th.Tool != "" {
		b.WriteString(styles.ThoughtTool.Render("⚙ " + th.Tool))
		if th.ToolInput != "" {
			b.WriteString("\n")
			b.WriteString(styles.Thought.Render(components.HighlightCode(th.ToolInput, "json")))
		}
		if th.Observation != "" {
			b.WriteString("\n")
			b.WriteString(styles.Thought.Render(components.HighlightCode(th.Observation, "json")))
		}
		if th.Thought != "" {
			b.WriteString("\n")
		}
	}

	if th.Thought != "" {
		b.WriteString(m.markdown.Render(th.Thought))
	}

	for _, f := range th.Files {
		b.WriteString("\n")
		b.WriteString(styles.Thought.Render("[file: " + f.URL + "]"))
	}

	return b.String()
}

// =============================================================================
// WORKFLOW TRACE
// =============================================================================

func (m *Model) renderWorkflow(wf *model.WorkflowProcess) string {
	var b strings.Builder

	b.WriteString(workflowStyle(wf.Status).Render("workflow " + string(wf.Status)))
	for _, node := range wf.Tracing {
		b.WriteString("\n  ")
		title := node.Title
		if title == "" {
			title = node.NodeType
		}
		line := workflowGlyph(node.Status) + " " + util.TruncateWidth(title, 40)
		if node.Error != "" {
			line += " (" + util.SingleLine(node.Error) + ")"
		}
		b.WriteString(workflowStyle(node.Status).Render(line))
	}

	return b.String()
}

func workflowStyle(status model.WorkflowStatus) lipgloss.Style {
	switch status {
	case model.WorkflowSucceeded:
		return styles.WorkflowSucceeded
	case model.WorkflowFailed, model.WorkflowStopped:
		return styles.WorkflowFailed
	default:
		return styles.WorkflowRunning
	}
}

func workflowGlyph(status model.WorkflowStatus) string {
	switch status {
	case model.WorkflowSucceeded:
		return "✓"
	case model.WorkflowFailed:
		return "✗"
	case model.WorkflowStopped:
		return "■"
	default:
		return "●"
	}
}
