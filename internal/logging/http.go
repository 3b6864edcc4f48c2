package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxBodySize = 10000
	maxChunkPreview    = 500
	redacted           = "[REDACTED]"
	truncatedSuffix    = "...[truncated]"
)

var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"api-key":       true,
	"x-api-key":     true,
	"x-auth-token":  true,
	"cookie":        true,
	"set-cookie":    true,
}

var sensitiveKeys = []string{
	"api_key", "apikey", "api-key",
	"password", "secret", "token",
	"authorization", "auth",
}

// HTTPLogger writes request and response diagnostics at debug level.
type HTTPLogger struct {
	logger      *Logger
	maxBodySize int
}

// NewHTTPLogger creates an HTTPLogger that writes through logger
func NewHTTPLogger(logger *Logger) *HTTPLogger {
	return &HTTPLogger{logger: logger, maxBodySize: defaultMaxBodySize}
}

// SetMaxBodySize sets the maximum body size to log (in bytes)
func (h *HTTPLogger) SetMaxBodySize(size int) {
	h.maxBodySize = size
}

// LogRequest logs an outgoing request. Credentials are redacted from both
// headers and JSON bodies.
func (h *HTTPLogger) LogRequest(req *http.Request, body []byte) {
	fields := Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": headerFields(req.Header, true),
	}
	h.addBody(fields, body, true)
	h.logger.Debug("http request", fields)
}

// LogResponse logs a completed response
func (h *HTTPLogger) LogResponse(resp *http.Response, body []byte, duration time.Duration) {
	fields := Fields{
		"status":      resp.StatusCode,
		"duration_ms": duration.Milliseconds(),
		"headers":     headerFields(resp.Header, false),
	}
	h.addBody(fields, body, false)
	h.logger.Debug("http response", fields)
}

// LogStreamStart logs the start of a server-sent event stream
func (h *HTTPLogger) LogStreamStart(resp *http.Response) {
	h.logger.Debug("http stream started", Fields{
		"status":    resp.StatusCode,
		"streaming": true,
	})
}

// LogStreamChunk logs one raw stream event
func (h *HTTPLogger) LogStreamChunk(chunk []byte, chunkNum int) {
	preview := string(chunk)
	if len(chunk) > maxChunkPreview {
		preview = string(chunk[:maxChunkPreview]) + truncatedSuffix
	}
	h.logger.Debug("http stream chunk", Fields{
		"chunk_num":  chunkNum,
		"chunk_size": len(chunk),
		"chunk":      preview,
	})
}

// LogStreamEnd logs the end of a stream
func (h *HTTPLogger) LogStreamEnd(duration time.Duration, totalBytes int, chunkCount int) {
	h.logger.Debug("http stream ended", Fields{
		"duration_ms": duration.Milliseconds(),
		"total_bytes": totalBytes,
		"chunk_count": chunkCount,
	})
}

// LogError logs a transport failure
func (h *HTTPLogger) LogError(err error, req *http.Request) {
	h.logger.Error("http error", err, Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})
}

func (h *HTTPLogger) addBody(fields Fields, body []byte, redact bool) {
	if len(body) == 0 {
		return
	}
	fields["body_size"] = len(body)

	var parsed any
	if json.Valid(body) && json.Unmarshal(body, &parsed) == nil {
		if redact {
			parsed = redactSensitiveFields(parsed)
		}
		fields["body"] = parsed
		return
	}
	fields["body"] = truncateBody(body, h.maxBodySize)
}

// Transport wraps an http.RoundTripper with request/response logging.
type Transport struct {
	wrapped http.RoundTripper
	logger  *HTTPLogger
	logBody bool
}

// NewLoggingRoundTripper wraps wrapped, or http.DefaultTransport when nil.
func NewLoggingRoundTripper(wrapped http.RoundTripper, logger *HTTPLogger, logBody bool) *Transport {
	if wrapped == nil {
		wrapped = http.DefaultTransport
	}
	return &Transport{wrapped: wrapped, logger: logger, logBody: logBody}
}

// RoundTrip implements http.RoundTripper. Bodies are only buffered when the
// logger is at debug level, and streaming bodies are never buffered.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.logger.logger.Enabled(LevelDebug) {
		return t.wrapped.RoundTrip(req)
	}

	start := time.Now()

	var reqBody []byte
	if t.logBody && req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}
	t.logger.LogRequest(req, reqBody)

	resp, err := t.wrapped.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		t.logger.LogError(err, req)
		return nil, err
	}

	if isStreamingResponse(resp) {
		t.logger.LogStreamStart(resp)
		return resp, nil
	}

	var respBody []byte
	if t.logBody {
		respBody, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(respBody))
	}
	t.logger.LogResponse(resp, respBody, duration)

	return resp, nil
}

func headerFields(h http.Header, redact bool) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		switch {
		case redact && isSensitiveHeader(k):
			out[k] = redacted
		case len(v) > 0:
			out[k] = v[0]
		}
	}
	return out
}

func isSensitiveHeader(name string) bool {
	return sensitiveHeaders[strings.ToLower(name)]
}

func truncateBody(body []byte, maxSize int) string {
	if len(body) <= maxSize {
		return string(body)
	}
	return string(body[:maxSize]) + truncatedSuffix
}

func isStreamingResponse(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	return strings.Contains(contentType, "text/event-stream") ||
		strings.Contains(contentType, "application/x-ndjson")
}

func redactSensitiveFields(data any) any {
	switch v := data.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			if isSensitiveKey(k) {
				result[k] = redacted
			} else {
				result[k] = redactSensitiveFields(val)
			}
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = redactSensitiveFields(item)
		}
		return result
	default:
		return data
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "max_") {
		return false
	}
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
