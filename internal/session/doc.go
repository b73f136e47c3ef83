// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat application state behind the UI.
//
// The Controller owns the conversation list, the active selection, the
// in-flight send flag, and the persisted preferences. Sending is split into
// a synchronous BeginSend and asynchronous apply calls (ApplyDelta,
// CompleteStream, FailStream, ApplyResponse, FailSend) keyed on IDs minted
// up front, so results arriving after a conversation was deleted drop
// silently instead of resurrecting it.
package session
