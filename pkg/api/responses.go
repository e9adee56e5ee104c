package api

// Finish reasons shared by every provider after normalization. An empty
// string means the turn is still in progress (streaming chunks only).
const (
	FinishStop          = "stop"
	FinishLength        = "length"
	FinishContentFilter = "content_filter"
	FinishToolCalls     = "tool_calls"
)

const (
	ObjectChatCompletion = "chat.completion"
	ObjectChatChunk      = "chat.completion.chunk"
)

// ChatResponse is the canonical chat-completion record. Both full responses
// and streaming chunks use this shape; Object tells them apart.
type ChatResponse struct {
	ID       string         `json:"id"`
	Object   string         `json:"object"`
	Created  int64          `json:"created"`
	Model    string         `json:"model"`
	Choices  []Choice       `json:"choices"`
	Usage    *ResponseUsage `json:"usage,omitempty"`
	Provider string         `json:"provider,omitempty"`
}

// Content returns the text of the first choice, whether it arrived as a
// full message or a streaming delta.
func (r *ChatResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	c := r.Choices[0]
	if c.Message != nil {
		return c.Message.Content
	}
	if c.Delta != nil {
		return c.Delta.Content
	}
	return ""
}

type Choice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"` // non-streaming
	Delta        *ChatMessage `json:"delta,omitempty"`   // streaming
	FinishReason string       `json:"finish_reason,omitempty"`
}

type ResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamResult is one element of a streaming sequence: either a chunk or
// the single terminal error. Chunks delivered before an error stay valid.
type StreamResult struct {
	Response *ChatResponse
	Err      error
}
