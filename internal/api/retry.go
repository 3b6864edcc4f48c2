package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Retry configuration defaults
const (
	MaxAPIRetryAttempts = 3
	APIInitialBackoff   = 500 * time.Millisecond
	APIMaxBackoff       = 5 * time.Second
	BackoffMultiplier   = 2.0
)

// RetryableStatusCodes are HTTP status codes that should trigger a retry
var RetryableStatusCodes = []int{
	http.StatusTooManyRequests,     // 429 - Rate limited
	http.StatusServiceUnavailable,  // 503 - Service unavailable
	http.StatusGatewayTimeout,      // 504 - Gateway timeout
	http.StatusBadGateway,          // 502 - Bad gateway
	http.StatusInternalServerError, // 500 - Internal server error (transient)
}

// ShouldRetryAPICall checks if the error status code indicates we should retry the API call
func ShouldRetryAPICall(statusCode int) bool {
	for _, code := range RetryableStatusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

// RetryPolicy controls how often and how patiently a request is retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Limiter, when set, is awaited before every attempt
	Limiter *RateLimiter
}

// DefaultRetryPolicy returns the policy used when nothing is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    MaxAPIRetryAttempts,
		InitialBackoff: APIInitialBackoff,
		MaxBackoff:     APIMaxBackoff,
	}
}

// Backoff returns the wait before retry number attempt (0-based)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := p.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * BackoffMultiplier)
		if backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
			break
		}
	}
	return backoff
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// retryable reports whether err is an APIError with a transient status
func retryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && ShouldRetryAPICall(apiErr.StatusCode)
}

// run calls attempt until it succeeds, fails permanently or runs out of
// attempts, sleeping between tries.
func (p RetryPolicy) run(ctx context.Context, attempt func() error) error {
	var lastErr error
	n := p.attempts()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("operation cancelled: %w", err)
		}
		if err := p.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("operation cancelled: %w", err)
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}

		if i < n-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("operation cancelled: %w", ctx.Err())
			case <-time.After(p.Backoff(i)):
			}
		}
	}

	if n == 1 {
		return lastErr
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", n, lastErr)
}

// RetryableFunc is a function that can be retried
type RetryableFunc[T any] func() (T, error)

// WithRetry executes fn under policy. Only APIErrors with a retryable status
// are retried; every other error is returned immediately.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, fn RetryableFunc[T]) (T, error) {
	var result T
	err := policy.run(ctx, func() error {
		r, err := fn()
		if err == nil {
			result = r
		}
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// StreamRetryableFunc is a function that returns an HTTP response for streaming.
// The caller is responsible for closing the response body on success.
type StreamRetryableFunc func() (*http.Response, error)

// WithStreamRetry retries opening the stream under policy, then processes the
// SSE body with the provided callbacks. Once streaming starts, retries are
// not attempted (partial responses cannot be safely retried).
func WithStreamRetry(ctx context.Context, policy RetryPolicy, fn StreamRetryableFunc, onChunk func(content string), onDone func(resp *ChatResponse)) error {
	var resp *http.Response
	err := policy.run(ctx, func() error {
		r, err := fn()
		if err == nil {
			resp = r
		}
		return err
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	processor := NewSSEProcessor(resp.Body)
	if err := processor.Process(ctx, onChunk); err != nil {
		return fmt.Errorf("failed to process stream: %w", err)
	}

	if onDone != nil {
		onDone(processor.BuildResponse())
	}
	return nil
}
