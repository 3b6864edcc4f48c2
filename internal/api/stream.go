package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/quocvuong92/grok-cli/internal/logging"
)

const (
	sseDataPrefix = "data:"
	sseDone       = "[DONE]"
)

// SSEProcessor handles Server-Sent Events stream processing
type SSEProcessor struct {
	reader         *bufio.Reader
	contentBuilder strings.Builder
	finalUsage     Usage
	responseID     string
	model          string
	finishReason   string
	chunks         int
	log            *logging.Logger
}

// NewSSEProcessor creates a new SSE stream processor
func NewSSEProcessor(r io.Reader) *SSEProcessor {
	return &SSEProcessor{
		reader: bufio.NewReader(r),
		log:    logging.Named("sse"),
	}
}

// Process reads the stream until [DONE] or EOF, calling onChunk for each
// content delta. Malformed events are logged and skipped.
func (p *SSEProcessor) Process(ctx context.Context, onChunk func(content string)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := p.reader.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		data, ok := strings.CutPrefix(line, sseDataPrefix)
		if !ok {
			if err == io.EOF {
				return nil
			}
			continue
		}

		data = strings.TrimSpace(data)
		if data == sseDone {
			return nil
		}

		var chunk ChatResponse
		if jerr := json.Unmarshal([]byte(data), &chunk); jerr != nil {
			p.log.Warn("skipping malformed stream chunk", logging.Fields{
				"error": jerr.Error(),
				"data":  data,
			})
		} else {
			p.apply(chunk, onChunk)
		}

		if err == io.EOF {
			return nil
		}
	}
}

func (p *SSEProcessor) apply(chunk ChatResponse, onChunk func(content string)) {
	p.chunks++
	if chunk.ID != "" {
		p.responseID = chunk.ID
	}
	if chunk.Model != "" {
		p.model = chunk.Model
	}

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		if content := choice.Delta.Content; content != "" {
			p.contentBuilder.WriteString(content)
			if onChunk != nil {
				onChunk(content)
			}
		}
		if choice.FinishReason != "" {
			p.finishReason = choice.FinishReason
		}
	}

	if chunk.Usage.TotalTokens > 0 {
		p.finalUsage = chunk.Usage
	}
}

// BuildResponse constructs the final ChatResponse from accumulated data
func (p *SSEProcessor) BuildResponse() *ChatResponse {
	finishReason := p.finishReason
	if finishReason == "" {
		finishReason = "stop"
	}

	return &ChatResponse{
		ID:    p.responseID,
		Model: p.model,
		Choices: []Choice{
			{
				Index: 0,
				Message: Message{
					Role:    RoleAssistant,
					Content: p.contentBuilder.String(),
				},
				FinishReason: finishReason,
			},
		},
		Usage: p.finalUsage,
	}
}

// GetContent returns the accumulated content
func (p *SSEProcessor) GetContent() string {
	return p.contentBuilder.String()
}

// ChunkCount returns how many events carried a valid payload
func (p *SSEProcessor) ChunkCount() int {
	return p.chunks
}
