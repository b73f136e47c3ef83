// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(&Config{BaseURL: serverURL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	if _, err := NewClient(&Config{}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
	if _, err := NewClient(nil); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey for nil config, got %v", err)
	}
}

func TestChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"It is Paris."}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	content, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "capital of France?"}})
	if err != nil {
		t.Fatalf("ChatCompletion: %v", err)
	}
	if content != "It is Paris." {
		t.Errorf("Content = %q", content)
	}
}

func TestChatCompletion_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "hi"}})

	var upErr *Error
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if upErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", upErr.StatusCode)
	}
	if upErr.Message != "Incorrect API key provided" {
		t.Errorf("Message = %q", upErr.Message)
	}
}

func TestChatCompletionStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	var got strings.Builder
	err := client.ChatCompletionStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(delta string) {
		got.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("ChatCompletionStream: %v", err)
	}
	if got.String() != "Hello" {
		t.Errorf("Accumulated = %q", got.String())
	}
}

func TestChatCompletionStream_SkipsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: not json at all\n\n"))
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	var got strings.Builder
	err := client.ChatCompletionStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, func(delta string) {
		got.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("ChatCompletionStream: %v", err)
	}
	if got.String() != "ok" {
		t.Errorf("Accumulated = %q", got.String())
	}
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if model := r.FormValue("model"); model != "gpt-4o-transcribe" {
			t.Errorf("model = %q", model)
		}
		if format := r.FormValue("response_format"); format != "text" {
			t.Errorf("response_format = %q", format)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Fatalf("FormFile(file): %v", err)
		}
		w.Write([]byte("hello from the microphone\n"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Transcribe(context.Background(), "clip.webm", "audio/webm", []byte("fake"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello from the microphone" {
		t.Errorf("Text = %q", text)
	}
}
