// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upstream provides the HTTP client for the OpenAI-compatible
// provider the relay forwards to.
package upstream

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
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrNoAPIKey is returned when the client is constructed without credentials.
var ErrNoAPIKey = errors.New("upstream API key is not configured")

// Error represents a failure response from the upstream provider.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// parseError turns a non-2xx provider response into an *Error.
// OpenAI-compatible providers answer {"error": {"message": ...}}.
func parseError(statusCode int, body io.Reader) *Error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := "upstream request failed with status " + strconv.Itoa(statusCode)
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error.Message != "" {
		message = payload.Error.Message
	}
	return &Error{StatusCode: statusCode, Message: message}
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// Message is a chat message in provider wire form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the body for POST /chat/completions.
type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`
}

// chatCompletionResponse is the blocking completion response.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds upstream provider settings.
type Config struct {
	// BaseURL of the provider API (default: https://api.openai.com/v1)
	BaseURL string

	// APIKey for Bearer authentication. Required.
	APIKey string

	// ChatModel used for completions (default: gpt-4.1)
	ChatModel string

	// TranscribeModel used for audio transcription (default: gpt-4o-transcribe)
	TranscribeModel string

	// Timeout for non-streaming requests (default: 120s)
	Timeout time.Duration
}

// DefaultConfig returns provider defaults with the given API key.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		BaseURL:         "https://api.openai.com/v1",
		APIKey:          apiKey,
		ChatModel:       "gpt-4.1",
		TranscribeModel: "gpt-4o-transcribe",
		Timeout:         120 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to an OpenAI-compatible provider.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates an upstream client. Returns ErrNoAPIKey when the key
// is empty so callers fail at startup rather than on the first request.
func NewClient(config *Config) (*Client, error) {
	if config == nil || config.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.ChatModel == "" {
		config.ChatModel = "gpt-4.1"
	}
	if config.TranscribeModel == "" {
		config.TranscribeModel = "gpt-4o-transcribe"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// ChatModel returns the configured completion model.
func (c *Client) ChatModel() string {
	return c.config.ChatModel
}

// newRequest builds an authenticated request against the provider API.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	return req, nil
}

// =============================================================================
// CHAT COMPLETIONS
// =============================================================================

// ChatCompletion sends a blocking completion request and returns the
// assistant text of the first choice.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:    c.config.ChatModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseError(resp.StatusCode, resp.Body)
	}

	var result chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", &Error{StatusCode: resp.StatusCode, Message: "upstream returned no choices"}
	}
	return result.Choices[0].Message.Content, nil
}

// ChatCompletionStream sends a streaming completion request and calls the
// callback with each non-empty content delta, in arrival order.
func (c *Client) ChatCompletionStream(ctx context.Context, messages []Message, callback func(delta string)) error {
	body, err := json.Marshal(chatCompletionRequest{
		Model:    c.config.ChatModel,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return err
	}

	// No client timeout for streaming; cancellation comes from the context.
	streamClient := &http.Client{}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := streamClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, resp.Body)
	}

	reader := newChunkReader(resp.Body)
	return reader.process(ctx, callback)
}

// =============================================================================
// TRANSCRIPTION
// =============================================================================

// Transcribe uploads audio to the provider and returns the transcript as
// plain text (response_format=text).
func (c *Client) Transcribe(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", c.config.TranscribeModel); err != nil {
		return "", err
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseError(resp.StatusCode, resp.Body)
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(text)), nil
}
