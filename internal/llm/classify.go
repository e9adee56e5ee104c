package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/freeflowlabs/freeflow/internal/httpclient"
	"github.com/freeflowlabs/freeflow/pkg/api"
)

// rateLimitMarkers are vendor phrasings of a rate-limit condition, matched
// when no definitive 429 status is available.
var rateLimitMarkers = []string{
	"rate limit",
	"too many requests",
	"quota exceeded",
	"resource exhausted",
}

// IsRateLimit reports whether a failure is a rate-limit condition. A 429
// status always is; otherwise the message is scanned case-insensitively
// for the known markers. Pure and stateless.
func IsRateLimit(statusCode int, message string) bool {
	if statusCode == 429 {
		return true
	}

	lower := strings.ToLower(message)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// ExtractErrorMessage digs a human-readable message out of an upstream
// error body: `error.message`, then a bare `error` value, then `message`,
// then the raw body text, then a synthesized "HTTP <status>".
func ExtractErrorMessage(body []byte, statusCode int) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Error) > 0 && string(payload.Error) != "null" {
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
				return nested.Message
			}
			var bare string
			if err := json.Unmarshal(payload.Error, &bare); err == nil && bare != "" {
				return bare
			}
			return string(payload.Error)
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}

// WrapError funnels any transport or vendor failure through the classifier
// so every adapter applies identical policy. The result is always one of
// the api error kinds; raw transport errors never escape.
func WrapError(provider string, err error) error {
	var rateErr *api.RateLimitError
	var provErr *api.ProviderError
	if errors.As(err, &rateErr) || errors.As(err, &provErr) {
		return err
	}

	var upstream *httpclient.UpstreamError
	if errors.As(err, &upstream) {
		msg := ExtractErrorMessage(upstream.Body, upstream.StatusCode)
		if IsRateLimit(upstream.StatusCode, msg) {
			return &api.RateLimitError{Provider: provider, Detail: msg}
		}
		return &api.ProviderError{Provider: provider, Detail: msg}
	}

	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return &api.ProviderError{Provider: provider, Detail: fmt.Sprintf("request timeout: %v", err)}
	}

	msg := err.Error()
	if strings.Contains(msg, "429") || IsRateLimit(0, msg) {
		return &api.RateLimitError{Provider: provider, Detail: msg}
	}
	return &api.ProviderError{Provider: provider, Detail: msg}
}
