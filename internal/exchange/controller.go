// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/dify-tui/internal/appapi"
	"github.com/jeranaias/dify-tui/internal/model"
	"github.com/jeranaias/dify-tui/internal/store"
)

// =============================================================================
// STATES AND ERRORS
// =============================================================================

// State is the controller's exchange phase.
type State int

const (
	// StateIdle accepts a new send.
	StateIdle State = iota
	// StateSending covers the window between send and the first event.
	StateSending
	// StateStreaming folds events into the growing answer.
	StateStreaming
	// StateCompleting runs post-stream work: promotion and renaming.
	StateCompleting
	// StateErroring rolls the placeholder back after a failed stream.
	StateErroring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleting:
		return "completing"
	case StateErroring:
		return "erroring"
	}
	return "unknown"
}

var (
	// ErrBusy rejects a send while an exchange is in flight.
	ErrBusy = errors.New("a response is still in progress")
	// ErrEmptyQuery rejects a blank message.
	ErrEmptyQuery = errors.New("message is empty")
	// ErrNoConversation rejects a send with nothing selected.
	ErrNoConversation = errors.New("no active conversation")
	// ErrFeedbackUnavailable rejects feedback on messages that cannot
	// carry it.
	ErrFeedbackUnavailable = errors.New("message does not accept feedback")
)

// MissingInputsError rejects a send while required prompt variables are
// unset on the local conversation.
type MissingInputsError struct {
	Names []string
}

func (e *MissingInputsError) Error() string {
	return "required inputs missing: " + strings.Join(e.Names, ", ")
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the per-conversation message lists and drives one
// exchange at a time against the app API.
type Controller struct {
	api           appapi.API
	conversations *store.ConversationStore
	state         *store.StateStore // optional, nil disables persistence
	appID         string
	notify        Notifier

	mu     sync.Mutex
	phase  State
	lists  map[string]*MessageList
	cancel context.CancelFunc
	ex     *exchangeState
	params *appapi.AppParams
}

// exchangeState is the working set of one in-flight exchange.
type exchangeState struct {
	conversationID string // captured at send time, "-1" for local
	wasLocal       bool
	inputs         map[string]string

	questionID    string
	placeholderID string
	answer        *model.ChatMessage

	installed  bool // answer replaced the placeholder
	reconciled bool // answer carries a server message id
	agentMode  bool
	orphaned   bool
	aborted    bool
	ended      bool

	serverConvID string
	taskID       string
	failed       error
}

// NewController creates a controller. stateStore may be nil; notify may
// be nil to discard events.
func NewController(api appapi.API, conversations *store.ConversationStore, stateStore *store.StateStore, appID string, notify Notifier) *Controller {
	return &Controller{
		api:           api,
		conversations: conversations,
		state:         stateStore,
		appID:         appID,
		notify:        notify,
		lists:         make(map[string]*MessageList),
	}
}

// SetParams installs the app parameters fetched at startup.
func (c *Controller) SetParams(params *appapi.AppParams) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
}

// Params returns the installed app parameters, or nil.
func (c *Controller) Params() *appapi.AppParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// State returns the current exchange phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) emit(ev Event) {
	if c.notify != nil {
		c.notify(ev)
	}
}

// =============================================================================
// MESSAGE LISTS
// =============================================================================

// ListFor returns the message list of a conversation, creating it on
// first use.
func (c *Controller) ListFor(conversationID string) *MessageList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listForLocked(conversationID)
}

func (c *Controller) listForLocked(conversationID string) *MessageList {
	if list, ok := c.lists[conversationID]; ok {
		return list
	}
	list := NewMessageList()
	c.lists[conversationID] = list
	return list
}

// Messages returns a snapshot of a conversation's message list.
func (c *Controller) Messages(conversationID string) []*model.ChatMessage {
	return c.ListFor(conversationID).Snapshot()
}

// LoadHistory fetches a conversation's history into its message list,
// synthesizing the opening statement at the head when the conversation
// has an introduction.
func (c *Controller) LoadHistory(ctx context.Context, conversationID string) error {
	var msgs []*model.ChatMessage
	if conversationID != model.LocalConversationID {
		fetched, err := c.api.FetchChatList(ctx, conversationID)
		if err != nil {
			return err
		}
		msgs = fetched
	}

	conv := c.conversations.Get(conversationID)
	params := c.Params()

	intro := ""
	var inputs map[string]string
	if conv != nil {
		intro = conv.Introduction
		inputs = conv.Inputs
	}
	if intro == "" && conversationID == model.LocalConversationID && params != nil {
		intro = params.OpeningStatement
	}

	var vars []model.PromptVariable
	if params != nil {
		vars = params.PromptVariables
	}
	if opening := model.OpeningStatement(intro, vars, inputs); opening != nil {
		msgs = append([]*model.ChatMessage{opening}, msgs...)
	}

	c.ListFor(conversationID).Load(msgs)
	c.emit(MessagesUpdated{ConversationID: conversationID})
	return nil
}

// =============================================================================
// SEND
// =============================================================================

// CanSend reports whether a send would be accepted right now.
func (c *Controller) CanSend(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if c.State() != StateIdle {
		return ErrBusy
	}
	active := c.conversations.Active()
	if active == nil {
		return ErrNoConversation
	}
	if active.IsLocal() {
		if params := c.Params(); params != nil {
			if missing := model.MissingRequiredInputs(params.PromptVariables, active.Inputs); len(missing) > 0 {
				return &MissingInputsError{Names: missing}
			}
		}
	}
	return nil
}

// Send starts an exchange on the active conversation: the question and
// an empty placeholder answer are appended, then the response streams in
// on a background goroutine.
func (c *Controller) Send(query string, files []model.MessageFile) error {
	if err := c.CanSend(query); err != nil {
		return err
	}

	c.mu.Lock()
	if c.phase != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	active := c.conversations.Active()
	if active == nil {
		c.mu.Unlock()
		return ErrNoConversation
	}

	list := c.listForLocked(active.ID)
	question := model.NewQuestion(query, files)
	placeholder := model.NewPlaceholderAnswer()
	list.Append(question)
	list.Append(placeholder)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.phase = StateSending
	c.ex = &exchangeState{
		conversationID: active.ID,
		wasLocal:       active.IsLocal(),
		inputs:         active.Inputs,
		questionID:     question.ID,
		placeholderID:  placeholder.ID,
		answer:         model.NewPendingAnswer(),
	}
	convID := active.ID
	wasLocal := active.IsLocal()
	inputs := active.Inputs
	c.mu.Unlock()

	c.emit(MessagesUpdated{ConversationID: convID})

	req := appapi.ChatRequest{
		Query:  query,
		Inputs: inputs,
		Files:  files,
	}
	if !wasLocal {
		req.ConversationID = convID
	}

	go c.runExchange(ctx, cancel, req)
	return nil
}

// Abort cancels the in-flight exchange. The placeholder and any partial
// answer are rolled back when the stream goroutine returns; the question
// stays.
func (c *Controller) Abort() {
	c.mu.Lock()
	if c.ex != nil {
		c.ex.aborted = true
	}
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (c *Controller) runExchange(ctx context.Context, cancel context.CancelFunc, req appapi.ChatRequest) {
	defer cancel()
	err := c.api.SendChatMessage(ctx, req, c.fold)
	c.finish(err)
}

// =============================================================================
// EVENT FOLD
// =============================================================================

// fold applies one stream event to the working answer. Events for a
// conversation the user has switched away from are drained unapplied.
func (c *Controller) fold(ev appapi.StreamEvent) {
	c.mu.Lock()
	ex := c.ex
	if ex == nil {
		c.mu.Unlock()
		return
	}

	// The orphan mark is sticky: switching back mid-stream does not
	// resume folding.
	if !ex.orphaned && c.conversations.ActiveID() != ex.conversationID {
		ex.orphaned = true
	}
	if ex.orphaned {
		c.mu.Unlock()
		return
	}

	if ev.Event == appapi.EventError {
		msg := ev.Message
		if msg == "" {
			msg = "the server reported an error"
		}
		ex.failed = &appapi.ClientError{Type: appapi.ErrTypeStream, Message: msg}
		c.mu.Unlock()
		return
	}

	if ev.ConversationID != "" && ex.serverConvID == "" {
		ex.serverConvID = ev.ConversationID
	}
	if ev.TaskID != "" && ex.taskID == "" {
		ex.taskID = ev.TaskID
	}

	list := c.listForLocked(ex.conversationID)

	// The first substantive event swaps the placeholder for the answer.
	changed := false
	if !ex.installed {
		list.Remove(ex.placeholderID)
		list.Append(ex.answer)
		ex.installed = true
		c.phase = StateStreaming
		changed = true
	}

	// The answer takes the first server message id it sees, exactly once.
	if !ex.reconciled && ev.MessageID != "" {
		ex.answer.ID = ev.MessageID
		ex.reconciled = true
	}

	if c.applyLocked(ex, ev) {
		changed = true
	}

	convID := ex.conversationID
	c.mu.Unlock()

	if changed {
		c.emit(MessagesUpdated{ConversationID: convID})
	}
}

// applyLocked mutates the working answer for one event and reports
// whether anything visible changed.
func (c *Controller) applyLocked(ex *exchangeState, ev appapi.StreamEvent) bool {
	answer := ex.answer

	switch ev.Event {
	case appapi.EventMessage, appapi.EventAgentMessage:
		if ev.Answer == "" {
			return false
		}
		if ex.agentMode {
			if th := answer.LastThought(); th != nil {
				th.Thought += ev.Answer
				return true
			}
		}
		answer.Content += ev.Answer
		return true

	case appapi.EventAgentThought:
		if ev.Thought == nil {
			return false
		}
		ex.agentMode = true
		// A repeated copy of the last thought fills in the tool fields.
		// The accumulated thought text and attached files stay: answer
		// deltas landed there and the late copy must not clobber them.
		if last := answer.LastThought(); last != nil && last.ID == ev.Thought.ID {
			if ev.Thought.Tool != "" {
				last.Tool = ev.Thought.Tool
			}
			if ev.Thought.ToolInput != "" {
				last.ToolInput = ev.Thought.ToolInput
			}
			if ev.Thought.Observation != "" {
				last.Observation = ev.Thought.Observation
			}
			return true
		}
		th := *ev.Thought
		answer.AgentThoughts = append(answer.AgentThoughts, &th)
		return true

	case appapi.EventMessageFile:
		if ev.File == nil {
			return false
		}
		if ex.agentMode {
			if th := answer.LastThought(); th != nil {
				th.Files = append(th.Files, *ev.File)
				return true
			}
		}
		answer.MessageFiles = append(answer.MessageFiles, *ev.File)
		return true

	case appapi.EventMessageReplace:
		answer.Content = ev.Answer
		return true

	case appapi.EventWorkflowStarted:
		answer.Workflow = &model.WorkflowProcess{
			RunID:  ev.WorkflowRunID,
			Status: model.WorkflowRunning,
		}
		return true

	case appapi.EventNodeStarted:
		if answer.Workflow == nil || ev.Node == nil {
			return false
		}
		answer.Workflow.Tracing = append(answer.Workflow.Tracing, *ev.Node)
		return true

	case appapi.EventNodeFinished:
		if answer.Workflow == nil || ev.Node == nil {
			return false
		}
		for i := range answer.Workflow.Tracing {
			if answer.Workflow.Tracing[i].NodeID == ev.Node.NodeID {
				answer.Workflow.Tracing[i] = *ev.Node
				return true
			}
		}
		return false

	case appapi.EventWorkflowFinished:
		if answer.Workflow == nil {
			return false
		}
		answer.Workflow.Status = ev.WorkflowStatus
		return true

	case appapi.EventMessageEnd:
		ex.ended = true
		return false
	}

	return false
}

// =============================================================================
// COMPLETION
// =============================================================================

// finish runs once the stream goroutine returns, in every outcome:
// normal end, server error event, transport error, abort, or orphaning.
func (c *Controller) finish(streamErr error) {
	c.mu.Lock()
	ex := c.ex
	if ex == nil {
		c.mu.Unlock()
		return
	}
	c.ex = nil
	c.cancel = nil

	list := c.listForLocked(ex.conversationID)

	// Orphaned exchanges vanish without notifications; the list was
	// abandoned when the user switched away.
	if ex.orphaned {
		list.Remove(ex.placeholderID)
		if ex.installed {
			list.Remove(ex.answer.ID)
		}
		c.phase = StateIdle
		c.mu.Unlock()
		return
	}

	aborted := ex.aborted || errors.Is(streamErr, context.Canceled)
	failed := ex.failed != nil || (streamErr != nil && !errors.Is(streamErr, context.Canceled))

	// Abort and error share the rollback: the placeholder and any partial
	// answer go, the question stays so the user can retry it, and the
	// phase returns straight to Idle. No promotion happens either way.
	if failed || aborted {
		cause := ex.failed
		if cause == nil {
			cause = streamErr
		}
		c.phase = StateErroring
		list.Remove(ex.placeholderID)
		if ex.installed {
			list.Remove(ex.answer.ID)
		}
		c.phase = StateIdle
		convID := ex.conversationID
		c.mu.Unlock()

		c.emit(MessagesUpdated{ConversationID: convID})
		if failed {
			c.emit(ExchangeFailed{ConversationID: convID, Err: cause})
		} else {
			c.emit(ExchangeAborted{ConversationID: convID})
		}
		return
	}

	if !ex.installed {
		list.Remove(ex.placeholderID)
	}

	c.phase = StateCompleting
	c.mu.Unlock()

	finalConvID := ex.conversationID
	if ex.wasLocal && ex.serverConvID != "" {
		finalConvID = c.promote(ex)
	}

	c.mu.Lock()
	c.phase = StateIdle
	c.mu.Unlock()

	c.emit(MessagesUpdated{ConversationID: finalConvID})
	c.emit(ExchangeFinished{ConversationID: finalConvID})
}

// promote turns the local conversation into the server one the exchange
// created: the message list moves to the server id, the list is
// refreshed from the API, and the new conversation gets its generated
// name.
func (c *Controller) promote(ex *exchangeState) string {
	serverID := ex.serverConvID

	c.mu.Lock()
	if list, ok := c.lists[model.LocalConversationID]; ok {
		c.lists[serverID] = list
		delete(c.lists, model.LocalConversationID)
	}
	c.mu.Unlock()

	wasActive := c.conversations.ActiveID() == model.LocalConversationID
	c.conversations.RemoveLocal()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if convs, err := c.api.FetchConversations(ctx); err == nil {
		c.conversations.SetList(convs)
	}
	if c.conversations.Get(serverID) == nil {
		// The list fetch can lag behind a fresh conversation.
		c.conversations.Upsert(model.Conversation{ID: serverID, Name: "New conversation"})
	}

	if name, err := c.api.GenerateConversationName(ctx, serverID); err == nil && name != "" {
		c.conversations.Rename(serverID, name)
	}

	if wasActive {
		c.conversations.SetActive(serverID)
	}

	if c.state != nil {
		c.state.RekeyInputs(c.appID, model.LocalConversationID, serverID)
		if wasActive {
			c.state.SaveActiveConversation(c.appID, serverID)
		}
		if len(ex.inputs) > 0 {
			c.state.SaveInputs(c.appID, serverID, ex.inputs)
		}
	}

	c.emit(ConversationsUpdated{})
	return serverID
}
