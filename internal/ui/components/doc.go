// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable view components for the parley TUI:
// the conversation sidebar, the error banner and confirmation prompt, and
// the status bar. Components are stateless views; all state lives in the
// chat model and the session controller.
package components
