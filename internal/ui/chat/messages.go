// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the parley TUI.
//
// This file defines the Bubble Tea message types used by the chat
// interface: relay health, blocking and streaming chat results, voice
// transcription, and the streaming render tick.
package chat

import "time"

// =============================================================================
// RELAY MESSAGES
// =============================================================================

// RelayStatusMsg reports whether the relay server is reachable.
type RelayStatusMsg struct {
	Up    bool
	Error error
}

// =============================================================================
// CHAT MESSAGES
// =============================================================================

// ChatResponseMsg delivers a complete reply from a blocking send.
type ChatResponseMsg struct {
	ConversationID string
	MessageID      string
	Content        string
}

// ChatErrorMsg reports a failed blocking send.
type ChatErrorMsg struct {
	ConversationID string
	MessageID      string
	Error          error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that streaming has begun.
type StreamStartMsg struct {
	ConversationID string
	MessageID      string
	StartTime      time.Time
}

// StreamCompleteMsg signals that streaming finished cleanly.
type StreamCompleteMsg struct {
	ConversationID string
	MessageID      string
}

// StreamErrorMsg signals a streaming failure. Fragments that already
// rendered stay visible until the session controller patches the message.
type StreamErrorMsg struct {
	ConversationID string
	MessageID      string
	Error          error
}

// StreamTickMsg drives the batched streaming render at a capped frame
// rate.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// TRANSCRIPTION MESSAGES
// =============================================================================

// TranscribeResultMsg delivers a voice transcript destined for the input
// bar.
type TranscribeResultMsg struct {
	Text string
}

// TranscribeErrorMsg reports a failed transcription.
type TranscribeErrorMsg struct {
	Error error
}
