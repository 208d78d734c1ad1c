// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/jeranaias/dify-tui/internal/model"
)

// =============================================================================
// FEEDBACK
// =============================================================================

// ToggleFeedback flips the rating on an answer message. Pressing the
// rating the message already carries clears it; pressing the other one
// replaces it. The change applies optimistically and is persisted in the
// background; on persist failure the optimistic rating stays and a
// FeedbackFailed event is emitted.
func (c *Controller) ToggleFeedback(conversationID, messageID string, pressed model.Rating) error {
	if pressed != model.RatingLike && pressed != model.RatingDislike {
		return ErrFeedbackUnavailable
	}
	// Placeholder answers have no server identity to rate.
	if strings.HasPrefix(messageID, "answer-placeholder-") {
		return ErrFeedbackUnavailable
	}

	list := c.ListFor(conversationID)

	var next model.Rating
	applied := false
	list.Update(messageID, func(m *model.ChatMessage) {
		if !m.IsAnswer || m.FeedbackDisabled {
			return
		}
		current := model.RatingNone
		if m.Feedback != nil {
			current = m.Feedback.Rating
		}
		if current == pressed {
			next = model.RatingNone
		} else {
			next = pressed
		}
		m.Feedback = &model.Feedback{Rating: next}
		applied = true
	})
	if !applied {
		return ErrFeedbackUnavailable
	}

	c.emit(MessagesUpdated{ConversationID: conversationID})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.api.SubmitFeedback(ctx, messageID, next); err != nil {
			c.emit(FeedbackFailed{MessageID: messageID, Err: err})
		}
	}()

	return nil
}
