// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for parley.
//
// Configuration lives in ~/.parley/config.toml with built-in defaults and
// environment variable overrides (PARLEY_RELAY_URL, PARLEY_PORT,
// OPENAI_API_KEY, OPENAI_BASE_URL, PARLEY_CHAT_MODEL,
// PARLEY_TRANSCRIBE_MODEL). The file may hold an API key, so it is kept at
// 0600. A fsnotify Watcher supports hot-reload of model settings in the
// relay.
package config
