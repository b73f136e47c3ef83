// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay provides the HTTP client for the parley relay server.
//
// All failures surface as *APIError: server responses carry the parsed
// status and message, transport failures carry StatusCode 0 with
// NetworkError set. Streaming responses are newline-delimited
// "data: <json>" frames parsed by StreamReader; malformed frames are
// skipped rather than failing the stream.
package relay
