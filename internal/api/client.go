package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quocvuong92/grok-cli/internal/config"
)

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the chat completions request body
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Delta represents streaming delta content
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Choice represents a response choice
type Choice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta,omitempty"`
	Message      Message `json:"message,omitempty"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// ChatResponse represents the chat completions response
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// GetContent extracts the content from the response
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		if r.Choices[0].Message.Content != "" {
			return r.Choices[0].Message.Content
		}
		return r.Choices[0].Delta.Content
	}
	return ""
}

// GetUsageMap returns usage as a map for display
func (r *ChatResponse) GetUsageMap() map[string]int {
	return map[string]int{
		"input_tokens":  r.Usage.PromptTokens,
		"output_tokens": r.Usage.CompletionTokens,
		"total_tokens":  r.Usage.TotalTokens,
	}
}

// Model is one entry of the model listing
type Model struct {
	ID      string `json:"id"`
	Created int64  `json:"created,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelList is the response of GET /v1/models
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// APIError represents an error with status code
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// newAPIError builds an APIError from a non-2xx response body. xAI reports
// errors either as {"error": "text"} or {"error": {"message": "text"}}.
func newAPIError(status int, body []byte) *APIError {
	msg := fmt.Sprintf("status code %d", status)

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var text string
		var nested struct {
			Message string `json:"message"`
		}
		switch {
		case json.Unmarshal(envelope.Error, &text) == nil && text != "":
			msg = text
		case json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "":
			msg = nested.Message
		}
	} else if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) < 200 {
		msg = trimmed
	}

	return &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("Grok API error (%d): %s", status, msg),
	}
}

// AIClient defines the interface for chat API clients.
type AIClient interface {
	// QueryWithHistoryContext sends the conversation and waits for the full reply
	QueryWithHistoryContext(ctx context.Context, messages []Message) (*ChatResponse, error)

	// QueryStreamWithHistoryContext sends the conversation and forwards the reply
	// as it arrives. onDone receives the accumulated response.
	QueryStreamWithHistoryContext(ctx context.Context, messages []Message, onChunk func(content string), onDone func(resp *ChatResponse)) error

	// ListModels returns the models the key can use
	ListModels(ctx context.Context) ([]Model, error)

	// Close releases idle connections
	Close()
}

var _ AIClient = (*GrokClient)(nil)

// NewClient creates the Grok client for cfg. The configuration must hold an
// API key.
func NewClient(cfg *config.Config) (AIClient, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrAPIKeyNotFound
	}
	return NewGrokClient(cfg), nil
}
