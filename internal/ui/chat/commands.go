// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleychat/parley/internal/relay"
	"github.com/parleychat/parley/internal/session"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// checkRelayCmd creates a command that checks whether the relay is up.
func checkRelayCmd(client *relay.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := client.CheckRunning(ctx)
		return RelayStatusMsg{Up: err == nil, Error: err}
	}
}

// sendChatCmd creates a command for a blocking (non-streaming) send.
func sendChatCmd(client *relay.Client, sc *session.SendContext) tea.Cmd {
	return func() tea.Msg {
		content, err := client.Chat(context.Background(), sc.Messages)
		if err != nil {
			return ChatErrorMsg{
				ConversationID: sc.ConversationID,
				MessageID:      sc.AssistantMessageID,
				Error:          err,
			}
		}
		return ChatResponseMsg{
			ConversationID: sc.ConversationID,
			MessageID:      sc.AssistantMessageID,
			Content:        content,
		}
	}
}

// transcribeCmd creates a command that uploads an audio file for
// transcription.
func transcribeCmd(client *relay.Client, path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return TranscribeErrorMsg{Error: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		text, err := client.Transcribe(ctx, filepath.Base(path), audioMIMEType(path), data)
		if err != nil {
			return TranscribeErrorMsg{Error: err}
		}
		return TranscribeResultMsg{Text: text}
	}
}

// audioMIMEType maps an audio file extension to its MIME type.
func audioMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".flac":
		return "audio/flac"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner executes streaming sends in a goroutine and feeds results
// back into the Bubble Tea program. Fragments go through the
// StreamingBuffer; lifecycle events go through program.Send.
type StreamRunner struct {
	program *tea.Program
	client  *relay.Client
}

// NewStreamRunner creates a runner for the given relay client. The
// program is attached later, after tea.NewProgram.
func NewStreamRunner(client *relay.Client) *StreamRunner {
	return &StreamRunner{client: client}
}

// SetProgram attaches the Bubble Tea program that receives stream events.
func (r *StreamRunner) SetProgram(p *tea.Program) {
	r.program = p
}

// Run executes one streaming send. Call from a goroutine; it blocks until
// the stream ends.
func (r *StreamRunner) Run(sc *session.SendContext, buffer *StreamingBuffer) {
	if r.program == nil {
		return
	}

	r.program.Send(StreamStartMsg{
		ConversationID: sc.ConversationID,
		MessageID:      sc.AssistantMessageID,
		StartTime:      time.Now(),
	})

	err := r.client.ChatStream(context.Background(), sc.Messages, func(event relay.StreamEvent) {
		if event.Content != "" {
			buffer.Write(event.Content)
		}
	})

	if err != nil {
		r.program.Send(StreamErrorMsg{
			ConversationID: sc.ConversationID,
			MessageID:      sc.AssistantMessageID,
			Error:          err,
		})
		return
	}

	r.program.Send(StreamCompleteMsg{
		ConversationID: sc.ConversationID,
		MessageID:      sc.AssistantMessageID,
	})
}
