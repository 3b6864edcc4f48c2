// Package api provides the client for the xAI Grok chat completions API.
//
// # Architecture
//
//   - client.go: wire types, APIError and the AIClient interface
//   - grok.go: GrokClient, the HTTP implementation of AIClient
//   - stream.go: Server-Sent Events (SSE) processor for streaming responses
//   - retry.go: exponential backoff for transient failures
//   - ratelimit.go: optional requests-per-minute limiter
//
// # Usage
//
//	cfg := config.NewConfig()
//	if err := cfg.Validate(); err != nil {
//	    // handle error
//	}
//	client, err := api.NewClient(cfg)
//	if err != nil {
//	    // handle error
//	}
//	defer client.Close()
//
//	err = client.QueryStreamWithHistoryContext(ctx, messages,
//	    func(chunk string) { fmt.Print(chunk) },
//	    func(resp *api.ChatResponse) { fmt.Println() },
//	)
//
// # Retries
//
// Requests that fail with 429, 500, 502, 503 or 504 are retried with
// exponential backoff. A stream is only retried while it is being opened;
// once the first byte has been read the response is consumed as-is.
package api
