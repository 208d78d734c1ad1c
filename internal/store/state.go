// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds client-side conversation state: the ordered
// conversation list with its active selection, and the persisted
// application state that survives restarts.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("database error")
	ErrInvalidPath   = errors.New("invalid path")
)

// =============================================================================
// STATE STORE
// =============================================================================

// StateStore persists per-app client state across restarts: the last
// active conversation and the prompt variable inputs the user entered
// for each conversation.
type StateStore struct {
	db *sql.DB
}

const stateSchema = `
CREATE TABLE IF NOT EXISTS app_state (
	app_id TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (app_id, key)
);

CREATE TABLE IF NOT EXISTS conversation_inputs (
	app_id          TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	inputs          TEXT NOT NULL,
	updated_at      INTEGER NOT NULL DEFAULT (unixepoch()),
	PRIMARY KEY (app_id, conversation_id)
);
`

// OpenStateStore opens (creating if needed) the state database at path.
func OpenStateStore(path string) (*StateStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrInvalidPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &StateStore{db: db}, nil
}

// Close closes the underlying database.
func (s *StateStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// ACTIVE CONVERSATION
// =============================================================================

const keyActiveConversation = "active_conversation_id"

// SaveActiveConversation records the selected conversation for an app.
func (s *StateStore) SaveActiveConversation(appID, conversationID string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_state (app_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(app_id, key) DO UPDATE SET value = excluded.value`,
		appID, keyActiveConversation, conversationID,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// LoadActiveConversation returns the previously selected conversation id
// for an app, or "" when none was recorded.
func (s *StateStore) LoadActiveConversation(appID string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM app_state WHERE app_id = ? AND key = ?`,
		appID, keyActiveConversation,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return value, nil
}

// =============================================================================
// CONVERSATION INPUTS
// =============================================================================

// SaveInputs persists the prompt variable values entered for a
// conversation.
func (s *StateStore) SaveInputs(appID, conversationID string, inputs map[string]string) error {
	data, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO conversation_inputs (app_id, conversation_id, inputs, updated_at)
		 VALUES (?, ?, ?, unixepoch())
		 ON CONFLICT(app_id, conversation_id) DO UPDATE
		 SET inputs = excluded.inputs, updated_at = excluded.updated_at`,
		appID, conversationID, string(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// LoadInputs returns the saved prompt variable values for a conversation,
// or nil when none were saved.
func (s *StateStore) LoadInputs(appID, conversationID string) (map[string]string, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT inputs FROM conversation_inputs WHERE app_id = ? AND conversation_id = ?`,
		appID, conversationID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	var inputs map[string]string
	if err := json.Unmarshal([]byte(data), &inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs: %w", err)
	}
	return inputs, nil
}

// RekeyInputs moves saved inputs from one conversation id to another.
// Used when a local conversation is promoted to its server id.
func (s *StateStore) RekeyInputs(appID, oldID, newID string) error {
	_, err := s.db.Exec(
		`UPDATE OR REPLACE conversation_inputs SET conversation_id = ?
		 WHERE app_id = ? AND conversation_id = ?`,
		newID, appID, oldID,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}
