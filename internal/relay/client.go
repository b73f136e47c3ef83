// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay provides the HTTP client for communicating with the parley
// relay server.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"
)

// =============================================================================
// ERROR TYPE
// =============================================================================

// NetworkErrorMessage is the user-facing message for transport failures.
const NetworkErrorMessage = "Unable to connect to the server. Please check your connection."

// APIError is the single normalized error carrier for relay calls.
// StatusCode is 0 and NetworkError true when the request never reached
// the server.
type APIError struct {
	Message      string
	StatusCode   int
	NetworkError bool
}

func (e *APIError) Error() string {
	return e.Message
}

// IsNetworkError reports whether err is an APIError caused by a transport
// failure rather than a server response.
func IsNetworkError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.NetworkError
	}
	return false
}

// newNetworkError builds the transport-failure APIError.
func newNetworkError() *APIError {
	return &APIError{
		Message:      NetworkErrorMessage,
		StatusCode:   0,
		NetworkError: true,
	}
}

// parseErrorResponse turns a non-2xx response body into an APIError.
// The relay answers errors as JSON {"error": ...}; some upstreams use
// {"message": ...} instead.
func parseErrorResponse(statusCode int, body io.Reader) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := "Request failed with status " + strconv.Itoa(statusCode)
	if err := json.NewDecoder(body).Decode(&payload); err == nil {
		if payload.Error != "" {
			message = payload.Error
		} else if payload.Message != "" {
			message = payload.Message
		}
	}
	return &APIError{Message: message, StatusCode: statusCode}
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is the wire form of a message sent to the relay.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for both chat endpoints.
type chatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// chatResponse is the blocking chat response body.
type chatResponse struct {
	Content string `json:"content"`
}

// transcribeResponse is the transcription response body.
type transcribeResponse struct {
	Text string `json:"text"`
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the relay client.
type ClientConfig struct {
	// BaseURL is the relay server base URL (default: http://127.0.0.1:3001)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6
	// resolution issues on Windows
	BaseURL string

	// Timeout for non-streaming requests (default: 120s)
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:3001",
		Timeout: 120 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the relay server.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new relay client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new relay client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:3001"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BaseURL returns the configured relay base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that the relay server is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return &APIError{Message: "failed to create request: " + err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newNetworkError()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp.StatusCode, resp.Body)
	}
	return nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// Chat sends a blocking chat request and returns the complete assistant
// response. An empty message list is rejected before any I/O.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", &APIError{Message: "messages must not be empty", StatusCode: http.StatusBadRequest}
	}

	body, err := json.Marshal(chatRequest{Messages: messages})
	if err != nil {
		return "", &APIError{Message: "failed to marshal request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Message: "failed to create request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newNetworkError()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseErrorResponse(resp.StatusCode, resp.Body)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &APIError{Message: "failed to decode response: " + err.Error(), StatusCode: resp.StatusCode}
	}
	return result.Content, nil
}

// ChatStream sends a streaming chat request and calls the callback for each
// delta event, synchronously in arrival order. Returns when the stream ends
// with a done event (nil), an error event (APIError), or the connection
// closes.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage, callback StreamCallback) error {
	if len(messages) == 0 {
		return &APIError{Message: "messages must not be empty", StatusCode: http.StatusBadRequest}
	}

	body, err := json.Marshal(chatRequest{Messages: messages})
	if err != nil {
		return &APIError{Message: "failed to marshal request: " + err.Error()}
	}

	// No client timeout for streaming; cancellation comes from the context.
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return &APIError{Message: "failed to create request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return newNetworkError()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, resp.Body)
	}

	reader := NewStreamReader(resp.Body)
	return reader.Process(ctx, callback)
}

// =============================================================================
// TRANSCRIPTION
// =============================================================================

// Transcribe uploads audio bytes as a multipart form and returns the
// transcribed text.
func (c *Client) Transcribe(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &APIError{Message: "audio data must not be empty", StatusCode: http.StatusBadRequest}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="audio"; filename="`+filename+`"`)
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", &APIError{Message: "failed to build multipart form: " + err.Error()}
	}
	if _, err := part.Write(data); err != nil {
		return "", &APIError{Message: "failed to build multipart form: " + err.Error()}
	}
	if err := writer.Close(); err != nil {
		return "", &APIError{Message: "failed to build multipart form: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/transcribe", &buf)
	if err != nil {
		return "", &APIError{Message: "failed to create request: " + err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newNetworkError()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseErrorResponse(resp.StatusCode, resp.Body)
	}

	var result transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &APIError{Message: "failed to decode response: " + err.Error(), StatusCode: resp.StatusCode}
	}
	return result.Text, nil
}
