// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"
)

// LocalConversationID is the sentinel id of a conversation created on this
// client and not yet known to the API. At most one local conversation may
// exist in the store at a time.
const LocalConversationID = "-1"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is one entry in the sidebar list. Inputs holds the values the
// user supplied for the app's prompt variables; they are substituted into the
// introduction template when the opening statement is synthesized.
type Conversation struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Introduction string            `json:"introduction,omitempty"`
	Inputs       map[string]string `json:"inputs,omitempty"`
}

// IsLocal reports whether the conversation exists only on this client.
func (c *Conversation) IsLocal() bool {
	return c.ID == LocalConversationID
}

// =============================================================================
// PROMPT VARIABLES
// =============================================================================

// PromptVariable is one user-supplied variable of the app's prompt template,
// derived from the app's user input form.
type PromptVariable struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// ReplaceVars substitutes "{{key}}" markers in template with the supplied
// input values. Unknown markers are left untouched.
func ReplaceVars(template string, vars []PromptVariable, inputs map[string]string) string {
	if template == "" || len(vars) == 0 || len(inputs) == 0 {
		return template
	}
	out := template
	for _, v := range vars {
		if val, ok := inputs[v.Key]; ok {
			out = strings.ReplaceAll(out, "{{"+v.Key+"}}", val)
		}
	}
	return out
}

// =============================================================================
// OPENING STATEMENT
// =============================================================================

// OpeningStatement synthesizes the first answer message of a conversation
// from its introduction template. Returns nil when the rendered introduction
// is empty. The result never accepts feedback.
func OpeningStatement(introduction string, vars []PromptVariable, inputs map[string]string) *ChatMessage {
	rendered := ReplaceVars(introduction, vars, inputs)
	if rendered == "" {
		return nil
	}
	return &ChatMessage{
		ID:                 nextLocalID(),
		Content:            rendered,
		IsAnswer:           true,
		FeedbackDisabled:   true,
		IsOpeningStatement: true,
		Timestamp:          time.Now(),
	}
}

// MissingRequiredInputs returns the names of required prompt variables that
// have no value in inputs. Send is rejected for a local conversation while
// any are missing.
func MissingRequiredInputs(vars []PromptVariable, inputs map[string]string) []string {
	var missing []string
	for _, v := range vars {
		if !v.Required {
			continue
		}
		if inputs[v.Key] == "" {
			name := v.Name
			if name == "" {
				name = v.Key
			}
			missing = append(missing, name)
		}
	}
	return missing
}
