package api

import (
	"fmt"
	"sort"
	"strings"
)

// ProviderUnavailableError means no usable credential is configured for the
// provider. Not retryable without a configuration change.
type ProviderUnavailableError struct {
	Provider string
	Detail   string
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("%s: provider unavailable: %s", e.Provider, e.Detail)
}

// RateLimitError is a classified rate-limit condition (HTTP 429 or a
// vendor message matching the known markers). Retrying, with backoff or
// otherwise, is the caller's decision.
type RateLimitError struct {
	Provider string
	Detail   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.Provider, e.Detail)
}

// ProviderError covers every other transport or vendor failure: non-429
// HTTP errors, timeouts, malformed response bodies.
type ProviderError struct {
	Provider string
	Detail   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider error: %s", e.Provider, e.Detail)
}

// ValidationError reports request parameters rejected before any transport
// work, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return "invalid request: " + strings.Join(parts, "; ")
}
