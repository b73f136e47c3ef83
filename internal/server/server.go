// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/internal/upstream"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default port for the relay server.
	DefaultPort = 3001

	// MaxMessageCount is the maximum number of messages in a request.
	MaxMessageCount = 100

	// MaxMessageLength is the maximum length of one message content.
	MaxMessageLength = 100000

	// MaxRequestBodySize is the maximum size for a chat request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxUploadSize is the maximum size for an audio upload (25MB, the
	// provider's transcription limit).
	MaxUploadSize = 25 * 1024 * 1024

	// Version is the server version.
	Version = "0.1.0"
)

// validRoles defines the set of acceptable message roles.
var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// validateMessages validates that all message roles are acceptable.
func validateMessages(messages []ChatMessage) error {
	for i, msg := range messages {
		if !validRoles[msg.Role] {
			return fmt.Errorf("invalid role %q at message %d: must be one of user, assistant, system", msg.Role, i)
		}
	}
	return nil
}

// ============================================================================
// WIRE TYPES
// ============================================================================

// ChatMessage represents a message in the chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of both chat endpoints.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ChatResponse is the blocking chat response body.
type ChatResponse struct {
	Content string `json:"content"`
}

// TranscribeResponse is the transcription response body.
type TranscribeResponse struct {
	Text string `json:"text"`
}

// StreamFrame is one event on the streaming chat response.
type StreamFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the relay HTTP server.
type Server struct {
	port   int
	router *http.ServeMux
	server *http.Server
	logger zerolog.Logger

	// upstream is nil when credentials are missing; API routes then fail
	// fast with a descriptive error instead of attempting a call. Guarded
	// by upMu so a config reload can swap it under live traffic.
	upMu     sync.RWMutex
	upstream *upstream.Client
}

// NewServer creates a new Server. A nil upstream client is allowed so the
// server can start without credentials and report the problem per request.
func NewServer(port int, client *upstream.Client, logger zerolog.Logger) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:     port,
		router:   http.NewServeMux(),
		logger:   logger,
		upstream: client,
	}

	s.setupRoutes()
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// SetUpstream replaces the upstream client. In-flight requests keep the
// client they started with; new requests see the replacement.
func (s *Server) SetUpstream(client *upstream.Client) {
	s.upMu.Lock()
	s.upstream = client
	s.upMu.Unlock()
}

// upstreamClient returns the current upstream client, which may be nil.
func (s *Server) upstreamClient() *upstream.Client {
	s.upMu.RLock()
	defer s.upMu.RUnlock()
	return s.upstream
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /", s.handleHealth)
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("POST /api/chat/stream", s.handleChatStream)
	s.router.HandleFunc("POST /api/transcribe", s.handleTranscribe)
}

// Handler returns the full handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		CORSMiddleware(DefaultCORSConfig()),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(DefaultRateLimiter(), s.logger),
	)(s.router)
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// handleHealth handles GET /.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	// The mux "GET /" pattern matches every unrouted path; only the root
	// is the health check.
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "oks"})
}

// ============================================================================
// CHAT HANDLERS
// ============================================================================

// parseChatRequest decodes and validates a chat request body.
// Writes the error response itself and returns false on failure.
func (s *Server) parseChatRequest(w http.ResponseWriter, r *http.Request) (*ChatRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "Messages are required")
		return nil, false
	}
	if len(req.Messages) > MaxMessageCount {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many messages: maximum is %d", MaxMessageCount))
		return nil, false
	}
	if err := validateMessages(req.Messages); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	for i, msg := range req.Messages {
		if len(msg.Content) > MaxMessageLength {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Message %d exceeds maximum length of %d", i, MaxMessageLength))
			return nil, false
		}
	}

	return &req, true
}

// requireUpstream returns the current upstream client, failing the request
// when none is configured.
func (s *Server) requireUpstream(w http.ResponseWriter) (*upstream.Client, bool) {
	client := s.upstreamClient()
	if client == nil {
		s.writeError(w, http.StatusInternalServerError, "OpenAI client is not initialized")
		return nil, false
	}
	return client, true
}

// toUpstreamMessages converts request messages to provider wire form.
func toUpstreamMessages(messages []ChatMessage) []upstream.Message {
	out := make([]upstream.Message, len(messages))
	for i, msg := range messages {
		out[i] = upstream.Message{Role: msg.Role, Content: msg.Content}
	}
	return out
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseChatRequest(w, r)
	if !ok {
		return
	}
	client, ok := s.requireUpstream(w)
	if !ok {
		return
	}

	content, err := client.ChatCompletion(r.Context(), toUpstreamMessages(req.Messages))
	if err != nil {
		s.logger.Error().Err(err).Msg("chat completion failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, ChatResponse{Content: content})
}

// handleChatStream handles POST /api/chat/stream.
//
// SSE headers are committed only once the first delta arrives, so an
// upstream failure before any output surfaces as a plain error status
// instead of a 200 with an error frame.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseChatRequest(w, r)
	if !ok {
		return
	}
	client, ok := s.requireUpstream(w)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	started := false
	begin := func() {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	err := client.ChatCompletionStream(r.Context(), toUpstreamMessages(req.Messages), func(delta string) {
		if !started {
			begin()
		}
		s.sendFrame(w, flusher, StreamFrame{Type: "delta", Content: delta})
	})

	if err != nil {
		s.logger.Error().Err(err).Bool("stream_started", started).Msg("chat stream failed")
		if !started {
			status := http.StatusInternalServerError
			var upErr *upstream.Error
			if errors.As(err, &upErr) && upErr.StatusCode >= 400 {
				status = upErr.StatusCode
			}
			s.writeError(w, status, err.Error())
			return
		}
		s.sendFrame(w, flusher, StreamFrame{Type: "error", Message: err.Error()})
		return
	}

	if !started {
		begin()
	}
	s.sendFrame(w, flusher, StreamFrame{Type: "done"})
}

// sendFrame writes a single SSE frame.
func (s *Server) sendFrame(w http.ResponseWriter, flusher http.Flusher, frame StreamFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// ============================================================================
// TRANSCRIBE HANDLER
// ============================================================================

// handleTranscribe handles POST /api/transcribe.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	client, ok := s.requireUpstream(w)
	if !ok {
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Failed to read audio file")
		return
	}

	text, err := client.Transcribe(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.logger.Error().Err(err).Msg("transcription failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, TranscribeResponse{Text: text})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		// No WriteTimeout: streaming responses stay open as long as the
		// upstream keeps producing.
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Str("version", Version).Msg("server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info().Msg("server shutting down")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response in the relay's flat error shape.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
