// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
)

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventType identifies a streaming event from the relay.
type EventType string

const (
	EventDelta EventType = "delta"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// StreamEvent is one parsed frame from the relay's event stream.
type StreamEvent struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Message string    `json:"message,omitempty"`
}

// StreamCallback is called for each delta event received during streaming.
type StreamCallback func(event StreamEvent)

// dataPrefix marks payload lines in the event stream.
var dataPrefix = []byte("data: ")

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader parses the relay's newline-delimited event stream.
// Frames arrive as "data: <json>" lines; bufio keeps partial lines buffered
// until the terminating newline arrives, so frames split across reads are
// reassembled transparently.
type StreamReader struct {
	reader *bufio.Reader
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each delta event.
// Blocks until a done event, an error event, stream end, or context
// cancellation. A stream that ends without a done event completes normally.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			event, err := s.readEvent()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
			if event == nil {
				continue
			}

			switch event.Type {
			case EventDelta:
				callback(*event)
			case EventDone:
				return nil
			case EventError:
				return &APIError{Message: event.Message}
			}
		}
	}
}

// readEvent reads and parses a single line from the stream.
// Returns (nil, nil) for lines to skip: blanks, non-data lines, and
// malformed JSON.
func (s *StreamReader) readEvent() (*StreamEvent, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		if len(line) == 0 {
			return nil, err
		}
		// Process the final unterminated line before surfacing EOF.
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 || !bytes.HasPrefix(line, dataPrefix) {
		return nil, nil
	}
	payload := line[len(dataPrefix):]

	var event StreamEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		// Skip malformed frames
		return nil, nil
	}
	return &event, nil
}
