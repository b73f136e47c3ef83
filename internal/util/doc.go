// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for parley.
//
// String helpers are rune- and width-aware so UI code never splits UTF-8
// characters mid-sequence. AtomicWriteFile gives crash-safe persistence
// (temp file, fsync, rename) for the store layer.
package util
