// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upstream provides the HTTP client for the OpenAI-compatible
// provider the relay forwards to.
//
// The client covers the three calls the relay needs: blocking chat
// completions, streamed completions (chat.completion.chunk frames ending
// with the [DONE] sentinel), and audio transcription with
// response_format=text. Construction fails without an API key.
package upstream
