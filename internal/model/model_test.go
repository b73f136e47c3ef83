// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage_GeneratesID(t *testing.T) {
	msg := NewUserMessage("hello")
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("Expected msg_ prefix, got %q", msg.ID)
	}
	if msg.Role != RoleUser {
		t.Errorf("Expected user role, got %q", msg.Role)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestMessage_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := NewUserMessage("x")
		if seen[msg.ID] {
			t.Fatalf("Duplicate ID generated: %s", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestMessage_Streaming(t *testing.T) {
	msg := NewAssistantMessage()
	if !msg.IsStreaming {
		t.Fatal("New assistant message should be streaming")
	}

	msg.AppendToken("Hello")
	msg.AppendToken(", ")
	msg.AppendToken("world")

	if got := msg.GetDisplayContent(); got != "Hello, world" {
		t.Errorf("Display content = %q, want %q", got, "Hello, world")
	}
	if msg.Content != "" {
		t.Errorf("Content should be empty while streaming, got %q", msg.Content)
	}

	msg.FinalizeStream()
	if msg.IsStreaming {
		t.Error("Message still streaming after finalize")
	}
	if msg.Content != "Hello, world" {
		t.Errorf("Content = %q, want %q", msg.Content, "Hello, world")
	}
}

func TestMessage_AppendToken_IgnoredWhenNotStreaming(t *testing.T) {
	msg := NewUserMessage("fixed")
	msg.AppendToken("extra")
	if got := msg.GetDisplayContent(); got != "fixed" {
		t.Errorf("Content changed on non-streaming append: %q", got)
	}
}

func TestMessage_SetStreamContent(t *testing.T) {
	msg := NewAssistantMessage()
	msg.SetStreamContent("partial")
	msg.SetStreamContent("partial response")
	if got := msg.GetDisplayContent(); got != "partial response" {
		t.Errorf("Display content = %q", got)
	}
	msg.FinalizeStream()
	if msg.Content != "partial response" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestMessage_SetContent_EndsStreaming(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("partial")
	msg.SetContent("⚠️ Error: boom")
	if msg.IsStreaming {
		t.Error("SetContent should end streaming state")
	}
	if msg.Content != "⚠️ Error: boom" {
		t.Errorf("Content = %q", msg.Content)
	}
}

func TestMessage_Preview(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		maxRunes int
		expected string
	}{
		{"short", "hi there", 30, "hi there"},
		{"exact", strings.Repeat("a", 30), 30, strings.Repeat("a", 30)},
		{"long", strings.Repeat("a", 40), 30, strings.Repeat("a", 30) + "..."},
		{"unicode", strings.Repeat("日", 35), 30, strings.Repeat("日", 30) + "..."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := NewUserMessage(tc.content)
			if got := msg.Preview(tc.maxRunes); got != tc.expected {
				t.Errorf("Preview = %q, want %q", got, tc.expected)
			}
		})
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation()
	if !strings.HasPrefix(conv.ID, "conv_") {
		t.Errorf("Expected conv_ prefix, got %q", conv.ID)
	}
	if !conv.IsEmpty() {
		t.Error("New conversation should be empty")
	}
	if conv.GetTitle() != "New Conversation" {
		t.Errorf("Default title = %q", conv.GetTitle())
	}
}

func TestConversation_AddMessage_UpdatesTimestamp(t *testing.T) {
	conv := NewConversation()
	before := conv.UpdatedAt
	conv.AddUserMessage("hello")
	if conv.UpdatedAt.Before(before) {
		t.Error("UpdatedAt not refreshed on append")
	}
	if conv.MessageCount() != 1 {
		t.Errorf("MessageCount = %d", conv.MessageCount())
	}
}

func TestConversation_TitleFromFirstUserMessage(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("What is the capital of France and why is it Paris?")
	want := "What is the capital of France " + "..."
	if conv.GetTitle() != want {
		t.Errorf("Title = %q, want %q", conv.GetTitle(), want)
	}

	// Title must not change on later messages.
	conv.AddUserMessage("Another much longer question that would make a different title")
	if conv.GetTitle() != want {
		t.Errorf("Title changed on second message: %q", conv.GetTitle())
	}
}

func TestConversation_TitleShortMessage(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hi")
	if conv.GetTitle() != "hi" {
		t.Errorf("Title = %q, want %q", conv.GetTitle(), "hi")
	}
}

func TestConversation_GetMessageByID(t *testing.T) {
	conv := NewConversation()
	msg := conv.AddUserMessage("find me")
	if got := conv.GetMessageByID(msg.ID); got != msg {
		t.Error("GetMessageByID did not return the message")
	}
	if got := conv.GetMessageByID("msg_nope"); got != nil {
		t.Error("Expected nil for unknown ID")
	}
}

func TestConversation_HistoryWindow(t *testing.T) {
	conv := NewConversation()
	for i := 0; i < 25; i++ {
		if i%2 == 0 {
			conv.AddUserMessage("question")
		} else {
			m := conv.AddAssistantMessage()
			m.SetStreamContent("answer")
			m.FinalizeStream()
		}
	}

	window := conv.HistoryWindow(20)
	if len(window) != 20 {
		t.Fatalf("Window size = %d, want 20", len(window))
	}
	// Trailing messages preserved in order.
	last := window[len(window)-1]
	if last.Role != "user" || last.Content != "question" {
		t.Errorf("Last window entry = %+v", last)
	}
}

func TestConversation_HistoryWindow_SmallerThanLimit(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("only one")
	window := conv.HistoryWindow(20)
	if len(window) != 1 {
		t.Fatalf("Window size = %d, want 1", len(window))
	}
}

func TestConversation_HistoryWindow_SkipsEmpty(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("hello")
	conv.AddAssistantMessage() // streaming, no content yet
	window := conv.HistoryWindow(20)
	if len(window) != 1 {
		t.Fatalf("Window size = %d, want 1 (empty skipped)", len(window))
	}
}

func TestConversation_HistoryWindow_FullDespiteEmpty(t *testing.T) {
	conv := NewConversation()
	for i := 0; i < 6; i++ {
		conv.AddUserMessage("earlier")
	}
	conv.AddAssistantMessage() // streaming, no content yet
	conv.AddUserMessage("newest")

	window := conv.HistoryWindow(5)
	if len(window) != 5 {
		t.Fatalf("Window size = %d, want 5 (empty entry must not shrink it)", len(window))
	}
	if window[len(window)-1].Content != "newest" {
		t.Errorf("Last window entry = %+v", window[len(window)-1])
	}
}

func TestConversation_RemoveMessage(t *testing.T) {
	conv := NewConversation()
	msg := conv.AddUserMessage("bye")
	if !conv.RemoveMessage(msg.ID) {
		t.Fatal("RemoveMessage returned false")
	}
	if !conv.IsEmpty() {
		t.Error("Conversation should be empty after removal")
	}
	if conv.RemoveMessage(msg.ID) {
		t.Error("Second removal should return false")
	}
}

func TestConversation_Clone(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("original")
	clone := conv.Clone()

	clone.Messages[0].Content = "mutated"
	if conv.Messages[0].Content != "original" {
		t.Error("Clone shares message storage with original")
	}
}

func TestConversation_Clone_MidStream(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("question")
	streaming := conv.AddAssistantMessage()
	streaming.SetStreamContent("partial answer")

	clone := conv.Clone()

	got := clone.Messages[1]
	if got.IsStreaming {
		t.Error("Cloned message should not carry streaming state")
	}
	if got.Content != "partial answer" {
		t.Errorf("Cloned content = %q, want accumulated text", got.Content)
	}

	// The clone's accumulator is independent: writing to it must not panic
	// and must not leak into the original.
	got.SetContent("replaced")
	streaming.AppendToken(" continues")
	if streaming.GetDisplayContent() != "partial answer continues" {
		t.Errorf("Original stream affected by clone: %q", streaming.GetDisplayContent())
	}
}
