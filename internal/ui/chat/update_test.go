// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/relay"
	"github.com/parleychat/parley/internal/session"
	"github.com/parleychat/parley/internal/store"
)

// =============================================================================
// STREAM RENDER TESTS
// =============================================================================

// newStreamingModel builds a model mid-stream: one send begun, the stream
// state pointed at the minted assistant message, and a buffer that flushes
// on every fragment.
func newStreamingModel(t *testing.T) (Model, *session.Controller, *session.SendContext) {
	t.Helper()

	ctrl := session.New(store.New(store.NewMemKV()), zerolog.Nop())
	sc, err := ctrl.BeginSend("hello")
	if err != nil {
		t.Fatalf("BeginSend failed: %v", err)
	}

	m := NewModel(ctrl, relay.NewClient(), NewStreamRunner(relay.NewClient()), zerolog.Nop())
	m.buffer = NewStreamingBufferWithConfig(1, 30)
	m.streamConvID = sc.ConversationID
	m.streamMsgID = sc.AssistantMessageID
	return m, ctrl, sc
}

// tickThroughFrames runs one stream tick beneath extra stack frames, so the
// model value is copied at varying call depths the way the tea loop copies
// it between updates.
func tickThroughFrames(m Model, depth int) Model {
	if depth > 0 {
		return tickThroughFrames(m, depth-1)
	}
	next, _ := m.handleStreamTick()
	return next.(Model)
}

func TestStreamTickAccumulatesAcrossModelCopies(t *testing.T) {
	m, ctrl, sc := newStreamingModel(t)

	m.buffer.Write("Hel")
	m = tickThroughFrames(m, 1)

	m.buffer.Write("lo, world")
	m = tickThroughFrames(m, 6)

	msg := ctrl.Active().GetMessageByID(sc.AssistantMessageID)
	if msg == nil {
		t.Fatal("Expected assistant message after flushed ticks")
	}
	if got := msg.GetDisplayContent(); got != "Hello, world" {
		t.Errorf("Expected accumulated content 'Hello, world', got %q", got)
	}
}

func TestStreamTickWithoutActiveStream(t *testing.T) {
	m, _, _ := newStreamingModel(t)
	m.resetStream()

	m.buffer.Write("stale")
	next, _ := m.handleStreamTick()
	m = next.(Model)

	if m.streamAccum != "" {
		t.Errorf("Expected no accumulation without an active stream, got %q", m.streamAccum)
	}
}

func TestStreamCompleteFlushesTrailingFragment(t *testing.T) {
	m, ctrl, sc := newStreamingModel(t)

	m.buffer.Write("partial reply")
	next, _ := m.handleStreamComplete(StreamCompleteMsg{
		ConversationID: sc.ConversationID,
		MessageID:      sc.AssistantMessageID,
	})
	m = next.(Model)

	if m.streaming() {
		t.Error("Expected stream state to reset after completion")
	}
	if ctrl.IsSending() {
		t.Error("Expected in-flight flag to clear after completion")
	}

	msg := ctrl.Active().GetMessageByID(sc.AssistantMessageID)
	if msg == nil {
		t.Fatal("Expected assistant message after completion")
	}
	if msg.Content != "partial reply" {
		t.Errorf("Expected trailing fragment to land in Content, got %q", msg.Content)
	}
}
