// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and chat
// messages as the chat application presents them: question/answer turns,
// per-answer feedback, agent thought segments, and workflow run traces.
//
// Identifiers follow the upstream convention: questions and placeholder
// answers carry locally generated ids ("question-<ts>",
// "answer-placeholder-<ts>") which are reconciled to server-issued message
// ids once the API assigns one. The sentinel conversation id "-1" marks a
// conversation that exists only on this client.
package model
