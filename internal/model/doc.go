// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// A Message accumulates streamed tokens into an internal builder while
// IsStreaming is set; FinalizeStream merges the accumulator into Content.
// A Conversation owns an ordered message list, refreshes UpdatedAt on every
// append, and derives its title from the first user message.
package model
