// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange drives a chat exchange from send to completion: it
// appends the question and placeholder answer, folds stream events into
// the growing answer, reconciles local ids with server ids, and promotes
// local conversations once the server has named them.
//
// A Controller runs at most one exchange at a time. Stream events are
// folded in arrival order; an event whose conversation is no longer the
// active one is drained but not applied. The fold switches permanently
// into agent mode when the first thought segment arrives, after which
// answer deltas accumulate on the latest thought instead of the
// message's top-level content.
package exchange
