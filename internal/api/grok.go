package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/quocvuong92/grok-cli/internal/config"
	"github.com/quocvuong92/grok-cli/internal/constants"
	"github.com/quocvuong92/grok-cli/internal/logging"
)

// API paths relative to the base URL
const (
	ChatCompletionsPath = "/v1/chat/completions"
	ModelsPath          = "/v1/models"
)

// GrokClient talks to the xAI chat completions API.
type GrokClient struct {
	httpClient *http.Client
	config     *config.Config
	policy     RetryPolicy
	log        *logging.Logger
}

// NewGrokClient creates a client for cfg. The model, temperature and token
// limit are read from cfg on every request, so changes made during a session
// apply to the next query.
func NewGrokClient(cfg *config.Config) *GrokClient {
	log := logging.Named("api")

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Verbose || cfg.LogFile != "" {
		transport = logging.NewLoggingRoundTripper(http.DefaultTransport, logging.NewHTTPLogger(log.Named("http")), true)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = constants.DefaultAPITimeout
	}

	policy := DefaultRetryPolicy()
	if cfg.MaxRetries > 0 {
		policy.MaxAttempts = cfg.MaxRetries
	}
	policy.Limiter = NewRateLimiter(cfg.RequestsPerMinute)

	return &GrokClient{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		config:     cfg,
		policy:     policy,
		log:        log,
	}
}

// SetRetryPolicy replaces the retry policy
func (c *GrokClient) SetRetryPolicy(p RetryPolicy) {
	c.policy = p
}

func (c *GrokClient) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.APIURL(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("User-Agent", constants.AppName+"/"+constants.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *GrokClient) chatRequest(messages []Message, stream bool) ([]byte, error) {
	reqBody := ChatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Stream:      stream,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return jsonData, nil
}

// QueryWithHistoryContext sends a query with full message history and context support (non-streaming)
func (c *GrokClient) QueryWithHistoryContext(ctx context.Context, messages []Message) (*ChatResponse, error) {
	jsonData, err := c.chatRequest(messages, false)
	if err != nil {
		return nil, err
	}

	c.log.Debug("sending chat request", logging.Fields{
		"model":    c.config.Model,
		"messages": len(messages),
	})

	return WithRetry(ctx, c.policy, func() (*ChatResponse, error) {
		req, err := c.newRequest(ctx, http.MethodPost, ChatCompletionsPath, jsonData)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, newAPIError(resp.StatusCode, body)
		}

		var chatResp ChatResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}

		return &chatResp, nil
	})
}

// QueryStreamWithHistoryContext sends a streaming query with full message history and context support
func (c *GrokClient) QueryStreamWithHistoryContext(ctx context.Context, messages []Message, onChunk func(content string), onDone func(resp *ChatResponse)) error {
	jsonData, err := c.chatRequest(messages, true)
	if err != nil {
		return err
	}

	c.log.Debug("sending streaming chat request", logging.Fields{
		"model":    c.config.Model,
		"messages": len(messages),
	})

	// Use retry logic for transient failures (before stream starts)
	return WithStreamRetry(ctx, c.policy, func() (*http.Response, error) {
		req, err := c.newRequest(ctx, http.MethodPost, ChatCompletionsPath, jsonData)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, newAPIError(resp.StatusCode, body)
		}

		return resp, nil
	}, onChunk, onDone)
}

// ListModels returns the models available to the API key
func (c *GrokClient) ListModels(ctx context.Context) ([]Model, error) {
	return WithRetry(ctx, c.policy, func() ([]Model, error) {
		req, err := c.newRequest(ctx, http.MethodGet, ModelsPath, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, newAPIError(resp.StatusCode, body)
		}

		var list ModelList
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to parse model list: %w", err)
		}
		return list.Data, nil
	})
}

// Close releases idle keep-alive connections
func (c *GrokClient) Close() {
	c.httpClient.CloseIdleConnections()
}
