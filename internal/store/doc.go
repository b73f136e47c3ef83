// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides persistence for conversations and UI preferences.
//
// The KV interface abstracts the backend so the session controller is
// testable against MemKV; FileKV is the production backend, one JSON file
// per key under ~/.parley written atomically. The typed Store layer owns
// the key names and the default-true semantics of boolean preferences.
package store
