// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/parleychat/parley/internal/model"
)

// =============================================================================
// KV BACKEND TESTS
// =============================================================================

func TestKV_RoundTrip(t *testing.T) {
	fileKV, err := NewFileKVWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKVWithDir: %v", err)
	}

	backends := map[string]KV{
		"file": fileKV,
		"mem":  NewMemKV(),
	}

	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			if _, err := kv.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get(missing) = %v, want ErrKeyNotFound", err)
			}

			if err := kv.Set("greeting", []byte(`"hello"`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			value, err := kv.Get("greeting")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(value) != `"hello"` {
				t.Errorf("Get = %q", value)
			}

			if err := kv.Delete("greeting"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := kv.Get("greeting"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get after delete = %v, want ErrKeyNotFound", err)
			}

			// Deleting an absent key is not an error.
			if err := kv.Delete("greeting"); err != nil {
				t.Errorf("Second delete: %v", err)
			}
		})
	}
}

func TestKV_Clear(t *testing.T) {
	fileKV, err := NewFileKVWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKVWithDir: %v", err)
	}

	backends := map[string]KV{
		"file": fileKV,
		"mem":  NewMemKV(),
	}

	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			kv.Set("a", []byte("1"))
			kv.Set("b", []byte("2"))
			if err := kv.Clear(); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			if _, err := kv.Get("a"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get(a) after clear = %v", err)
			}
			if _, err := kv.Get("b"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Get(b) after clear = %v", err)
			}
		})
	}
}

// =============================================================================
// CONVERSATION PERSISTENCE TESTS
// =============================================================================

func TestStore_ConversationRoundTrip(t *testing.T) {
	s := New(NewMemKV())

	conv := model.NewConversation()
	conv.AddUserMessage("what time is it")
	asst := conv.AddAssistantMessage()
	asst.SetStreamContent("half past nine")
	asst.FinalizeStream()

	if err := s.SaveConversations([]*model.Conversation{conv}); err != nil {
		t.Fatalf("SaveConversations: %v", err)
	}

	loaded, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Loaded %d conversations, want 1", len(loaded))
	}

	got := loaded[0]
	if got.ID != conv.ID {
		t.Errorf("ID = %q, want %q", got.ID, conv.ID)
	}
	if got.Title != conv.Title {
		t.Errorf("Title = %q, want %q", got.Title, conv.Title)
	}
	if got.MessageCount() != 2 {
		t.Fatalf("MessageCount = %d, want 2", got.MessageCount())
	}
	if got.Messages[1].Content != "half past nine" {
		t.Errorf("Assistant content = %q", got.Messages[1].Content)
	}

	// Timestamps survive at least at second granularity.
	if got.UpdatedAt.Truncate(time.Second).Unix() != conv.UpdatedAt.Truncate(time.Second).Unix() {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, conv.UpdatedAt)
	}
}

func TestStore_LoadConversations_Absent(t *testing.T) {
	s := New(NewMemKV())
	convs, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations: %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("Expected empty list, got %d", len(convs))
	}
}

func TestStore_SaveIsFullRewrite(t *testing.T) {
	s := New(NewMemKV())

	first := model.NewConversation()
	first.AddUserMessage("one")
	s.SaveConversations([]*model.Conversation{first})

	second := model.NewConversation()
	second.AddUserMessage("two")
	s.SaveConversations([]*model.Conversation{second})

	loaded, err := s.LoadConversations()
	if err != nil {
		t.Fatalf("LoadConversations: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != second.ID {
		t.Errorf("Save must replace the previous list entirely")
	}
}

func TestStore_ClearConversations(t *testing.T) {
	s := New(NewMemKV())
	conv := model.NewConversation()
	conv.AddUserMessage("bye")
	s.SaveConversations([]*model.Conversation{conv})

	if err := s.ClearConversations(); err != nil {
		t.Fatalf("ClearConversations: %v", err)
	}
	loaded, _ := s.LoadConversations()
	if len(loaded) != 0 {
		t.Errorf("Expected empty list after clear, got %d", len(loaded))
	}
}

// =============================================================================
// PREFERENCE TESTS
// =============================================================================

func TestStore_PrefsDefaultTrue(t *testing.T) {
	s := New(NewMemKV())
	if !s.SidebarPinned() {
		t.Error("SidebarPinned default should be true")
	}
	if !s.StreamingEnabled() {
		t.Error("StreamingEnabled default should be true")
	}
	if !s.DarkMode() {
		t.Error("DarkMode default should be true")
	}
}

func TestStore_PrefsPersist(t *testing.T) {
	kv, err := NewFileKVWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileKVWithDir: %v", err)
	}
	s := New(kv)

	if err := s.SetStreamingEnabled(false); err != nil {
		t.Fatalf("SetStreamingEnabled: %v", err)
	}
	if err := s.SetDarkMode(false); err != nil {
		t.Fatalf("SetDarkMode: %v", err)
	}

	// A second store over the same directory sees the saved values.
	reopened := New(&FileKV{BaseDir: kv.BaseDir})
	if reopened.StreamingEnabled() {
		t.Error("StreamingEnabled should be false after save")
	}
	if reopened.DarkMode() {
		t.Error("DarkMode should be false after save")
	}
	if !reopened.SidebarPinned() {
		t.Error("Untouched pref should keep its default")
	}
}

func TestStore_CorruptPrefFallsBack(t *testing.T) {
	kv := NewMemKV()
	kv.Set(KeyDarkMode, []byte("{not json"))
	s := New(kv)
	if !s.DarkMode() {
		t.Error("Corrupt pref should fall back to the default")
	}
}
