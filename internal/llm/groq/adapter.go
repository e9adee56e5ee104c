// Package groq adapts the Groq chat-completion API, which follows the
// OpenAI wire format: roles and choices pass through essentially verbatim.
package groq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/freeflowlabs/freeflow/internal/config"
	"github.com/freeflowlabs/freeflow/internal/llm"
	"github.com/freeflowlabs/freeflow/pkg/api"
)

const pn string = "groq"

const defaultBaseURL = "https://api.groq.com/openai/v1"

// defaultMaxTokens is sent when the caller leaves max_tokens unset.
const defaultMaxTokens = 1024

func init() {
	llm.Register(pn, New)
}

type codec struct {
	apiKey string
}

func New(cfg config.ProviderConfig) (llm.Provider, error) {
	return llm.NewClient(pn, &codec{apiKey: cfg.APIKey}, cfg, defaultBaseURL), nil
}

func (c *codec) RequestHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}
}

func (c *codec) RequestPayload(req *api.ChatRequest) (string, map[string]any, error) {
	body := map[string]any{
		"model":    req.Model,
		"messages": req.Messages,
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		body["top_p"] = *req.TopP
	}
	if req.MaxTokens != nil {
		body["max_tokens"] = *req.MaxTokens
	} else {
		body["max_tokens"] = defaultMaxTokens
	}
	if req.Stream {
		body["stream"] = true
	}

	// Provider-specific options win on collision.
	for k, v := range req.Extra {
		body[k] = v
	}

	return "/chat/completions", body, nil
}

// wireChoice distinguishes an absent finish_reason from an explicit null or
// empty one; both mean "stop" on a final response but stay open on chunks.
type wireChoice struct {
	Index        int              `json:"index"`
	Message      *api.ChatMessage `json:"message"`
	Delta        *api.ChatMessage `json:"delta"`
	FinishReason *string          `json:"finish_reason"`
}

type wireResponse struct {
	ID      string             `json:"id"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []wireChoice       `json:"choices"`
	Usage   *api.ResponseUsage `json:"usage"`
}

func (c *codec) ParseResponse(body []byte, model string) (*api.ChatResponse, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}

	resp := &api.ChatResponse{
		ID:      wire.ID,
		Object:  api.ObjectChatCompletion,
		Created: wire.Created,
		Model:   wire.Model,
		Usage:   wire.Usage,
	}
	if resp.Model == "" {
		resp.Model = model
	}

	now := time.Now().Unix()
	if resp.ID == "" {
		resp.ID = fmt.Sprintf("chatcmpl-%d", now)
	}
	if resp.Created == 0 {
		resp.Created = now
	}

	for _, ch := range wire.Choices {
		finish := api.FinishStop
		if ch.FinishReason != nil && *ch.FinishReason != "" {
			finish = *ch.FinishReason
		}
		resp.Choices = append(resp.Choices, api.Choice{
			Index:        ch.Index,
			Message:      ch.Message,
			FinishReason: finish,
		})
	}

	return resp, nil
}

func (c *codec) ParseChunk(payload []byte, model string) (*api.ChatResponse, error) {
	var wire wireResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}

	chunk := &api.ChatResponse{
		ID:      wire.ID,
		Object:  api.ObjectChatChunk,
		Created: wire.Created,
		Model:   wire.Model,
		Usage:   wire.Usage,
	}
	if chunk.Model == "" {
		chunk.Model = model
	}

	for _, ch := range wire.Choices {
		// The vendor delta passes through unmodified; finish_reason stays
		// empty until the terminal chunk carries one.
		finish := ""
		if ch.FinishReason != nil {
			finish = *ch.FinishReason
		}
		chunk.Choices = append(chunk.Choices, api.Choice{
			Index:        ch.Index,
			Delta:        ch.Delta,
			FinishReason: finish,
		})
	}

	return chunk, nil
}
