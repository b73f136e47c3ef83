// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides persistence for conversations and UI preferences.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/parleychat/parley/internal/model"
	"github.com/parleychat/parley/internal/util"
)

// =============================================================================
// KEYS
// =============================================================================

// Storage keys. Each key maps to one JSON document.
const (
	KeyConversations    = "conversations"
	KeySidebarPinned    = "sidebar-pinned"
	KeyStreamingEnabled = "streaming-enabled"
	KeyDarkMode         = "dark-mode"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrKeyNotFound is returned when a key has no stored value.
// Use errors.Is(err, ErrKeyNotFound) to check for this error.
var ErrKeyNotFound = &StoreError{Message: "key not found"}

// StoreError represents a storage-related error.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// KV INTERFACE
// =============================================================================

// KV is a minimal key/value backend. Values are opaque byte slices;
// Get returns ErrKeyNotFound for absent keys.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// =============================================================================
// FILE-BACKED KV
// =============================================================================

// FileKV persists each key as one JSON file under a base directory.
// Writes go through AtomicWriteFile so a crash never leaves a torn file.
type FileKV struct {
	// BaseDir is the directory holding the value files
	// Default: ~/.parley
	BaseDir string
}

// NewFileKV creates a file-backed KV under ~/.parley.
func NewFileKV() (*FileKV, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewFileKVWithDir(filepath.Join(homeDir, ".parley"))
}

// NewFileKVWithDir creates a file-backed KV under a custom directory.
func NewFileKVWithDir(baseDir string) (*FileKV, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &FileKV{BaseDir: baseDir}, nil
}

// Get retrieves the value stored under key.
func (f *FileKV) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(f.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set stores value under key, replacing any previous value.
func (f *FileKV) Set(key string, value []byte) error {
	return util.AtomicWriteFile(f.filePath(key), value, 0644)
}

// Delete removes the value stored under key. Absent keys are not an error.
func (f *FileKV) Delete(key string) error {
	if err := os.Remove(f.filePath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear removes every stored value.
func (f *FileKV) Clear() error {
	entries, err := os.ReadDir(f.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(f.BaseDir, entry.Name()))
		}
	}
	return nil
}

// filePath returns the file path for a key.
func (f *FileKV) filePath(key string) string {
	return filepath.Join(f.BaseDir, key+".json")
}

// =============================================================================
// IN-MEMORY KV
// =============================================================================

// MemKV is a map-backed KV for tests and ephemeral sessions.
// Safe for concurrent use.
type MemKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemKV creates an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{values: make(map[string][]byte)}
}

// Get retrieves the value stored under key.
func (m *MemKV) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores value under key.
func (m *MemKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored
	return nil
}

// Delete removes the value stored under key.
func (m *MemKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Clear removes every stored value.
func (m *MemKV) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string][]byte)
	return nil
}

// =============================================================================
// TYPED STORE
// =============================================================================

// Store layers typed conversation and preference accessors over a KV
// backend. Saves are full rewrites, last writer wins.
type Store struct {
	kv KV
}

// New creates a Store over the given backend.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// NewFileStore creates a Store persisted under ~/.parley.
func NewFileStore() (*Store, error) {
	kv, err := NewFileKV()
	if err != nil {
		return nil, err
	}
	return New(kv), nil
}

// SaveConversations persists the full conversation list.
func (s *Store) SaveConversations(convs []*model.Conversation) error {
	data, err := json.MarshalIndent(convs, "", "  ")
	if err != nil {
		return err
	}
	return s.kv.Set(KeyConversations, data)
}

// LoadConversations retrieves the persisted conversation list.
// An absent key yields an empty list, not an error.
func (s *Store) LoadConversations() ([]*model.Conversation, error) {
	data, err := s.kv.Get(KeyConversations)
	if err != nil {
		if err == ErrKeyNotFound {
			return []*model.Conversation{}, nil
		}
		return nil, err
	}

	var convs []*model.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []*model.Conversation{}
	}
	return convs, nil
}

// ClearConversations removes the persisted conversation list.
func (s *Store) ClearConversations() error {
	return s.kv.Delete(KeyConversations)
}

// BoolPref retrieves a boolean preference, returning defaultValue when the
// key is absent or unreadable.
func (s *Store) BoolPref(key string, defaultValue bool) bool {
	data, err := s.kv.Get(key)
	if err != nil {
		return defaultValue
	}
	var value bool
	if err := json.Unmarshal(data, &value); err != nil {
		return defaultValue
	}
	return value
}

// SetBoolPref stores a boolean preference.
func (s *Store) SetBoolPref(key string, value bool) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.kv.Set(key, data)
}

// SidebarPinned reports the sidebar pin preference (default true).
func (s *Store) SidebarPinned() bool {
	return s.BoolPref(KeySidebarPinned, true)
}

// SetSidebarPinned stores the sidebar pin preference.
func (s *Store) SetSidebarPinned(pinned bool) error {
	return s.SetBoolPref(KeySidebarPinned, pinned)
}

// StreamingEnabled reports the streaming preference (default true).
func (s *Store) StreamingEnabled() bool {
	return s.BoolPref(KeyStreamingEnabled, true)
}

// SetStreamingEnabled stores the streaming preference.
func (s *Store) SetStreamingEnabled(enabled bool) error {
	return s.SetBoolPref(KeyStreamingEnabled, enabled)
}

// DarkMode reports the dark mode preference (default true).
func (s *Store) DarkMode() bool {
	return s.BoolPref(KeyDarkMode, true)
}

// SetDarkMode stores the dark mode preference.
func (s *Store) SetDarkMode(dark bool) error {
	return s.SetBoolPref(KeyDarkMode, dark)
}
