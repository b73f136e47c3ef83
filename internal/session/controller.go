// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/model"
	"github.com/parleychat/parley/internal/relay"
	"github.com/parleychat/parley/internal/store"
)

// ErrorPrefix annotates assistant messages that carry a failure instead of
// a reply.
const ErrorPrefix = "⚠️ Error: "

var (
	// ErrSendInFlight is returned when a send is started while another is
	// still running.
	ErrSendInFlight = errors.New("a message is already being sent")

	// ErrEmptyMessage is returned when the message content is blank.
	ErrEmptyMessage = errors.New("message content is empty")
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the single authority over the conversation list, the active
// selection, and the in-flight send state. The UI reads from it and calls
// its action methods; it never mutates conversations directly.
//
// Every mutation is mirrored to the store best-effort: persistence failures
// are logged and never surfaced to the caller.
type Controller struct {
	mu     sync.Mutex
	store  *store.Store
	logger zerolog.Logger

	// conversations is ordered newest-first.
	conversations []*model.Conversation
	activeID      string

	sending   bool
	lastError string

	streamingEnabled bool
	darkMode         bool
	sidebarPinned    bool
}

// New creates a Controller backed by the given store, loading persisted
// conversations and preferences. A store read failure starts the controller
// empty rather than failing.
func New(st *store.Store, logger zerolog.Logger) *Controller {
	c := &Controller{
		store:            st,
		logger:           logger,
		streamingEnabled: st.StreamingEnabled(),
		darkMode:         st.DarkMode(),
		sidebarPinned:    st.SidebarPinned(),
	}

	convs, err := st.LoadConversations()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load conversations")
		return c
	}
	c.conversations = convs
	return c
}

// =============================================================================
// READ ACCESS
// =============================================================================

// Conversations returns the conversation list, newest first.
func (c *Controller) Conversations() []*model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*model.Conversation, len(c.conversations))
	copy(out, c.conversations)
	return out
}

// Active returns the active conversation, or nil when none is selected.
func (c *Controller) Active() *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(c.activeID)
}

// ActiveID returns the active conversation ID, "" when none.
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// IsSending reports whether a send is in flight.
func (c *Controller) IsSending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// LastError returns the most recent send error, "" when none.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// ClearError dismisses the current error.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = ""
}

// =============================================================================
// CONVERSATION MANAGEMENT
// =============================================================================

// NewConversation selects a conversation to start chatting in. An existing
// empty conversation is reused so the list never accumulates more than one
// blank entry; otherwise a fresh one is created and prepended. The displayed
// error is dismissed either way.
func (c *Controller) NewConversation() *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = ""

	for _, conv := range c.conversations {
		if conv.IsEmpty() {
			c.activeID = conv.ID
			return conv
		}
	}

	conv := model.NewConversation()
	c.conversations = append([]*model.Conversation{conv}, c.conversations...)
	c.activeID = conv.ID
	c.persistLocked()
	return conv
}

// SelectConversation makes the conversation with the given ID active and
// dismisses the displayed error. A nonexistent ID clears the selection and
// returns false.
func (c *Controller) SelectConversation(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = ""

	if c.findLocked(id) == nil {
		c.activeID = ""
		return false
	}
	c.activeID = id
	return true
}

// DeleteConversation removes a conversation. Deleting the active one
// promotes the most recently updated remaining conversation; when none
// remain, no conversation is active.
func (c *Controller) DeleteConversation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, conv := range c.conversations {
		if conv.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	c.conversations = append(c.conversations[:idx], c.conversations[idx+1:]...)

	if c.activeID == id {
		c.activeID = ""
		var newest *model.Conversation
		for _, conv := range c.conversations {
			if newest == nil || conv.UpdatedAt.After(newest.UpdatedAt) {
				newest = conv
			}
		}
		if newest != nil {
			c.activeID = newest.ID
		}
	}

	c.persistLocked()
}

// ClearHistory deletes every conversation, including the persisted copy.
func (c *Controller) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conversations = nil
	c.activeID = ""
	c.lastError = ""
	if err := c.store.ClearConversations(); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear conversation history")
	}
}

// =============================================================================
// PREFERENCES
// =============================================================================

// StreamingEnabled reports whether responses stream.
func (c *Controller) StreamingEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamingEnabled
}

// ToggleStreaming flips the streaming preference and persists it.
func (c *Controller) ToggleStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamingEnabled = !c.streamingEnabled
	if err := c.store.SetStreamingEnabled(c.streamingEnabled); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist streaming preference")
	}
	return c.streamingEnabled
}

// DarkMode reports whether the dark theme is active.
func (c *Controller) DarkMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.darkMode
}

// ToggleDarkMode flips the theme preference and persists it.
func (c *Controller) ToggleDarkMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.darkMode = !c.darkMode
	if err := c.store.SetDarkMode(c.darkMode); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist theme preference")
	}
	return c.darkMode
}

// SidebarPinned reports whether the sidebar stays open.
func (c *Controller) SidebarPinned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sidebarPinned
}

// ToggleSidebar flips the sidebar pin and persists it.
func (c *Controller) ToggleSidebar() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sidebarPinned = !c.sidebarPinned
	if err := c.store.SetSidebarPinned(c.sidebarPinned); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist sidebar preference")
	}
	return c.sidebarPinned
}

// =============================================================================
// SENDING
// =============================================================================

// SendContext carries everything the transport needs for one send, plus the
// IDs later apply calls are keyed on.
type SendContext struct {
	ConversationID     string
	AssistantMessageID string

	// Messages is the request payload: the trailing history window plus the
	// new user message.
	Messages []relay.ChatMessage
}

// BeginSend runs the synchronous half of sending a message: it appends the
// user message (creating a conversation when none is active), builds the
// request payload, and marks the controller busy. The returned context keys
// the asynchronous apply calls that follow.
//
// Fails with ErrSendInFlight while a previous send is unresolved and with
// ErrEmptyMessage for blank content.
func (c *Controller) BeginSend(content string) (*SendContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sending {
		return nil, ErrSendInFlight
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	conv := c.findLocked(c.activeID)
	if conv == nil {
		conv = model.NewConversation()
		c.conversations = append([]*model.Conversation{conv}, c.conversations...)
		c.activeID = conv.ID
	}

	conv.AddUserMessage(content)

	c.sending = true
	c.lastError = ""
	c.persistLocked()

	return &SendContext{
		ConversationID:     conv.ID,
		AssistantMessageID: model.NewMessageID(),
		Messages:           conv.HistoryWindow(model.HistoryLimit + 1),
	}, nil
}

// ApplyDelta applies accumulated streamed content to the assistant message,
// creating it on the first fragment. Fragments for a conversation that no
// longer exists are dropped silently.
//
// Content is written to disk on completion, not per fragment.
func (c *Controller) ApplyDelta(convID, msgID, accumulated string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv := c.findLocked(convID)
	if conv == nil {
		return
	}

	msg := conv.GetMessageByID(msgID)
	if msg == nil {
		msg = model.NewAssistantMessage()
		msg.ID = msgID
		conv.AddMessage(msg)
	}
	msg.SetStreamContent(accumulated)
}

// CompleteStream finalizes the streamed assistant message and clears the
// in-flight flag. The flag clears even when the conversation was deleted
// mid-stream.
func (c *Controller) CompleteStream(convID, msgID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sending = false

	conv := c.findLocked(convID)
	if conv == nil {
		return
	}
	if msg := conv.GetMessageByID(msgID); msg != nil {
		msg.FinalizeStream()
	}
	c.persistLocked()
}

// FailStream records a mid-stream failure. An assistant message already
// created by deltas is patched to the error annotation in place; when the
// failure arrived before any output, one annotated message is appended.
func (c *Controller) FailStream(convID, msgID, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sending = false
	c.lastError = errMsg

	conv := c.findLocked(convID)
	if conv == nil {
		return
	}

	if msg := conv.GetMessageByID(msgID); msg != nil {
		msg.SetContent(ErrorPrefix + errMsg)
	} else {
		msg := model.NewAssistantMessage()
		msg.ID = msgID
		msg.SetContent(ErrorPrefix + errMsg)
		conv.AddMessage(msg)
	}
	c.persistLocked()
}

// ApplyResponse appends the complete assistant reply from a blocking send.
func (c *Controller) ApplyResponse(convID, msgID, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sending = false

	conv := c.findLocked(convID)
	if conv == nil {
		return
	}

	msg := model.NewAssistantMessage()
	msg.ID = msgID
	msg.SetContent(content)
	conv.AddMessage(msg)
	c.persistLocked()
}

// FailSend records a blocking send failure as an annotated assistant
// message.
func (c *Controller) FailSend(convID, msgID, errMsg string) {
	c.FailStream(convID, msgID, errMsg)
}

// =============================================================================
// HELPERS
// =============================================================================

// findLocked returns the conversation with the given ID. Caller holds mu.
func (c *Controller) findLocked(id string) *model.Conversation {
	if id == "" {
		return nil
	}
	for _, conv := range c.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// persistLocked mirrors the conversation list to the store. Caller holds mu.
func (c *Controller) persistLocked() {
	if err := c.store.SaveConversations(c.conversations); err != nil {
		c.logger.Error().Err(err).Msg("failed to save conversations")
	}
}
