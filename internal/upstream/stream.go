// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
)

// chunkPrefix marks payload lines in the provider's event stream.
var chunkPrefix = []byte("data: ")

// doneSentinel terminates an OpenAI-compatible completion stream.
var doneSentinel = []byte("[DONE]")

// completionChunk is one chat.completion.chunk frame.
type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// chunkReader parses the provider's SSE completion stream. Frames arrive as
// "data: <json>" lines ending with a "data: [DONE]" sentinel; malformed
// frames are skipped.
type chunkReader struct {
	reader *bufio.Reader
}

func newChunkReader(r io.Reader) *chunkReader {
	return &chunkReader{reader: bufio.NewReader(r)}
}

// process reads the stream and calls the callback for each content delta.
// Blocks until the sentinel, stream end, or context cancellation.
func (c *chunkReader) process(ctx context.Context, callback func(delta string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			line, err := c.reader.ReadBytes('\n')
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			line = bytes.TrimSpace(line)
			if len(line) == 0 || !bytes.HasPrefix(line, chunkPrefix) {
				continue
			}
			payload := line[len(chunkPrefix):]
			if bytes.Equal(payload, doneSentinel) {
				return nil
			}

			var chunk completionChunk
			if err := json.Unmarshal(payload, &chunk); err != nil {
				// Skip malformed frames
				continue
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				callback(chunk.Choices[0].Delta.Content)
			}
		}
	}
}
