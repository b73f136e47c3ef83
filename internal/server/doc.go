// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the relay HTTP server.
//
// Endpoints:
//   - GET  /                - Health check
//   - POST /api/chat        - Blocking chat completion
//   - POST /api/chat/stream - Streaming chat completion (SSE)
//   - POST /api/transcribe  - Audio transcription (multipart)
//
// The relay is a stateless forwarder: it validates each request, passes it
// to the upstream provider, and translates the reply into the relay wire
// format. Streaming responses are re-emitted as "data: <json>" frames with
// type delta, done, or error; SSE headers are committed only after the
// first upstream delta so early failures keep a proper error status.
//
// Middleware (recovery, CORS, request logging, per-IP rate limiting) wraps
// every route.
package server
