package llm

import (
	"context"

	"github.com/freeflowlabs/freeflow/pkg/api"
)

type ProviderName string

const (
	Groq   ProviderName = "groq"
	Gemini ProviderName = "gemini"
)

// Provider is the contract every vendor adapter satisfies. An instance is
// constructed once, binds its credential and transport, and is reused
// across calls; it holds no per-call mutable state.
type Provider interface {
	Name() string
	// Available reports whether a usable credential is configured.
	Available() bool
	// DefaultModel is the model used when a request leaves Model empty.
	DefaultModel() string
	// Chat blocks until the full completion is received or fails.
	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)
	// Stream returns a lazy, finite sequence of canonical chunks. A
	// transport failure surfaces exactly once, as the final element;
	// chunks already received remain valid.
	Stream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error)
}
