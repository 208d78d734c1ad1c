// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package appapi provides the HTTP client for the chat application API,
// including the SSE stream reader for chat responses.
package appapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/dify-tui/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the app API client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeUnauthorized
	ErrTypeNotFound
	ErrTypeRateLimited
	ErrTypeInvalidResponse
	ErrTypeStream
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable  = &ClientError{Type: ErrTypeUnreachable, Message: "app API is unreachable"}
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnauthorized = &ClientError{Type: ErrTypeUnauthorized, Message: "invalid API key"}
	ErrNotFound     = &ClientError{Type: ErrTypeNotFound, Message: "resource not found"}
	ErrRateLimited  = &ClientError{Type: ErrTypeRateLimited, Message: "rate limited by server"}
)

// IsUnauthorized checks if an error is an authorization failure.
func IsUnauthorized(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnauthorized
	}
	return errors.Is(err, ErrUnauthorized)
}

// IsUnreachable checks if an error indicates the API could not be reached.
func IsUnreachable(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeUnreachable
	}
	return errors.Is(err, ErrUnreachable)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the app API client.
type ClientConfig struct {
	// BaseURL of the app API, e.g. "https://api.dify.ai/v1".
	BaseURL string

	// APIKey sent as a bearer token on every request.
	APIKey string

	// User identifies the end user to the API for conversation scoping.
	User string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// RequestsPerSecond caps outgoing request rate (default: 10)
	RequestsPerSecond float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "https://api.dify.ai/v1",
		User:              "tui-user",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 10,
	}
}

// =============================================================================
// API INTERFACE
// =============================================================================

// StreamCallback is called for each event received during streaming.
type StreamCallback func(ev StreamEvent)

// API is the surface the UI and exchange layers depend on. Client is the
// HTTP implementation; DemoClient serves canned data without a network.
type API interface {
	FetchAppParams(ctx context.Context) (*AppParams, error)
	FetchConversations(ctx context.Context) ([]model.Conversation, error)
	FetchChatList(ctx context.Context, conversationID string) ([]*model.ChatMessage, error)
	GenerateConversationName(ctx context.Context, conversationID string) (string, error)
	SubmitFeedback(ctx context.Context, messageID string, rating model.Rating) error
	SendChatMessage(ctx context.Context, req ChatRequest, callback StreamCallback) error
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the app API.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ API = (*Client)(nil)

// NewClient creates a new app API client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "https://api.dify.ai/v1"
	}
	if config.User == "" {
		config.User = "tui-user"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 10
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), int(config.RequestsPerSecond)),
	}
}

// newRequest builds an authenticated request after waiting on the limiter.
func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ClientError{Type: ErrTypeTimeout, Message: "rate limiter wait cancelled", Cause: err}
	}

	var reader *bytes.Reader
	var req *http.Request
	var err error
	if body != nil {
		reader = bytes.NewReader(body)
		req, err = http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, nil)
	}
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// checkStatus converts a non-2xx response into a ClientError.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}

	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: apiErr.Message}
	}
	return &ClientError{Type: ErrTypeInvalidResponse, Message: "request failed: " + resp.Status}
}

// wrapTransportErr maps transport failures onto the sentinel errors.
func wrapTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request cancelled", Cause: err}
	}
	return &ClientError{Type: ErrTypeUnreachable, Message: "app API is unreachable", Cause: err}
}

// =============================================================================
// APP PARAMETERS
// =============================================================================

// FetchAppParams retrieves the app configuration: opening statement
// template, prompt variables, and suggested questions.
func (c *Client) FetchAppParams(ctx context.Context) (*AppParams, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/parameters?user="+c.config.User, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var raw appParamsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	params := &AppParams{
		OpeningStatement:   raw.OpeningStatement,
		SuggestedQuestions: raw.SuggestedQuestions,
	}
	for _, control := range raw.UserInputForm {
		// Each form entry wraps one control keyed by its widget type.
		keys := make([]string, 0, len(control))
		for k := range control {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			field := control[k]
			if field.Key == "" {
				continue
			}
			params.PromptVariables = append(params.PromptVariables, model.PromptVariable{
				Key:      field.Key,
				Name:     field.Name,
				Required: field.Required,
			})
		}
	}

	return params, nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// FetchConversations retrieves the conversation list, most recent first.
func (c *Client) FetchConversations(ctx context.Context) ([]model.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/conversations?user="+c.config.User+"&limit=100", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var raw conversationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	conversations := make([]model.Conversation, 0, len(raw.Data))
	for _, item := range raw.Data {
		conversations = append(conversations, model.Conversation{
			ID:           item.ID,
			Name:         item.Name,
			Introduction: item.Introduction,
			Inputs:       item.Inputs,
		})
	}
	return conversations, nil
}

// GenerateConversationName asks the server to auto-name a conversation
// from its content and returns the new name.
func (c *Client) GenerateConversationName(ctx context.Context, conversationID string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"auto_generate": true,
		"user":          c.config.User,
	})
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/conversations/"+conversationID+"/name", body)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", wrapTransportErr(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var raw renameResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return raw.Name, nil
}

// =============================================================================
// MESSAGE HISTORY
// =============================================================================

// FetchChatList retrieves the message history of a conversation as an
// ordered question/answer list, oldest first.
func (c *Client) FetchChatList(ctx context.Context, conversationID string) ([]*model.ChatMessage, error) {
	path := "/messages?conversation_id=" + conversationID + "&user=" + c.config.User + "&limit=100"
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var raw chatListResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	// Each history item expands to a question followed by its answer.
	messages := make([]*model.ChatMessage, 0, len(raw.Data)*2)
	for _, item := range raw.Data {
		ts := time.Unix(item.CreatedAt, 0)

		var questionFiles, answerFiles []model.MessageFile
		for _, f := range item.MessageFiles {
			if f.BelongsTo == "user" {
				questionFiles = append(questionFiles, f)
			} else {
				answerFiles = append(answerFiles, f)
			}
		}

		messages = append(messages, &model.ChatMessage{
			ID:           "question-" + item.ID,
			Content:      item.Query,
			IsAnswer:     false,
			MessageFiles: questionFiles,
			Timestamp:    ts,
		})
		messages = append(messages, &model.ChatMessage{
			ID:            item.ID,
			Content:       item.Answer,
			IsAnswer:      true,
			Feedback:      item.Feedback,
			AgentThoughts: item.AgentThoughts,
			MessageFiles:  answerFiles,
			Timestamp:     ts,
		})
	}
	return messages, nil
}

// =============================================================================
// FEEDBACK
// =============================================================================

// SubmitFeedback persists a rating for an answer message. RatingNone
// clears a previously submitted rating.
func (c *Client) SubmitFeedback(ctx context.Context, messageID string, rating model.Rating) error {
	payload := map[string]any{"user": c.config.User}
	if rating == model.RatingNone {
		payload["rating"] = nil
	} else {
		payload["rating"] = string(rating)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/messages/"+messageID+"/feedbacks", body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransportErr(err)
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// SendChatMessage posts a chat message and streams the response events to
// the callback. Returns when the stream ends or the context is cancelled.
func (c *Client) SendChatMessage(ctx context.Context, chatReq ChatRequest, callback StreamCallback) error {
	chatReq.ResponseMode = "streaming"
	if chatReq.Inputs == nil {
		chatReq.Inputs = map[string]string{}
	}

	payload := map[string]any{
		"query":           chatReq.Query,
		"inputs":          chatReq.Inputs,
		"conversation_id": chatReq.ConversationID,
		"response_mode":   chatReq.ResponseMode,
		"user":            c.config.User,
	}
	if len(chatReq.Files) > 0 {
		payload["files"] = chatReq.Files
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &ClientError{Type: ErrTypeTimeout, Message: "rate limiter wait cancelled", Cause: err}
	}

	// No client timeout for streaming; the context governs the stream.
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat-messages", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := streamClient.Do(req)
	if err != nil {
		return wrapTransportErr(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	reader := NewStreamReader(resp.Body)
	return reader.Process(ctx, callback)
}
