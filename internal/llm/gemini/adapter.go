// Package gemini adapts the Google Gemini generateContent API. Gemini
// diverges from the OpenAI shape in three ways this codec must bridge:
// system messages become a separate systemInstruction, the assistant role
// is called "model", and finish reasons use Gemini's own vocabulary.
package gemini

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/freeflowlabs/freeflow/internal/config"
	"github.com/freeflowlabs/freeflow/internal/llm"
	"github.com/freeflowlabs/freeflow/pkg/api"
)

const pn string = "gemini"

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

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
	// Gemini authenticates with its own key header, not a bearer token.
	return map[string]string{
		"x-goog-api-key": c.apiKey,
	}
}

type Part struct {
	Text string `json:"text,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Shape splits canonical messages into Gemini contents plus an optional
// system instruction. System messages are extracted, never appended to
// contents; when several appear, the last one wins.
func Shape(messages []api.ChatMessage) ([]Content, string) {
	var contents []Content
	var system string

	for _, m := range messages {
		switch m.Role {
		case string(api.System):
			system = m.Content
		case string(api.Assistant):
			contents = append(contents, Content{Role: "model", Parts: []Part{{Text: m.Content}}})
		default:
			contents = append(contents, Content{Role: "user", Parts: []Part{{Text: m.Content}}})
		}
	}

	return contents, system
}

func (c *codec) RequestPayload(req *api.ChatRequest) (string, map[string]any, error) {
	contents, system := Shape(req.Messages)

	generation := map[string]any{}
	if req.Temperature != nil {
		generation["temperature"] = *req.Temperature
	}
	if req.TopP != nil {
		generation["topP"] = *req.TopP
	}
	// maxOutputTokens is omitted, not defaulted, when unset.
	if req.MaxTokens != nil {
		generation["maxOutputTokens"] = *req.MaxTokens
	}

	body := map[string]any{
		"contents":         contents,
		"generationConfig": generation,
	}
	if system != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []Part{{Text: system}},
		}
	}

	for k, v := range req.Extra {
		body[k] = v
	}

	endpoint := fmt.Sprintf("/models/%s:generateContent", req.Model)
	if req.Stream {
		endpoint = fmt.Sprintf("/models/%s:streamGenerateContent?alt=sse", req.Model)
	}
	return endpoint, body, nil
}

type wireCandidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type wireResponse struct {
	Candidates []wireCandidate `json:"candidates"`
}

// finishReasons remaps Gemini's finish vocabulary onto the canonical one.
// Matching is case-sensitive on the vendor values.
var finishReasons = map[string]string{
	"STOP":       api.FinishStop,
	"MAX_TOKENS": api.FinishLength,
	"SAFETY":     api.FinishContentFilter,
	"RECITATION": api.FinishContentFilter,
	"OTHER":      api.FinishStop,
}

// finalFinishReason is the remap for completed responses, where unmapped
// or missing vendor values mean the turn ended normally.
func finalFinishReason(vendor string) string {
	if mapped, ok := finishReasons[vendor]; ok {
		return mapped
	}
	return api.FinishStop
}

func (c *codec) ParseResponse(body []byte, model string) (*api.ChatResponse, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}

	text := ""
	finish := api.FinishStop
	if len(wire.Candidates) > 0 {
		cand := wire.Candidates[0]
		if len(cand.Content.Parts) > 0 {
			text = cand.Content.Parts[0].Text
		}
		finish = finalFinishReason(cand.FinishReason)
	}

	// Gemini supplies no id or created timestamp; synthesize both. Usage
	// is absent from the basic response, so the canonical usage stays nil.
	now := time.Now().Unix()

	return &api.ChatResponse{
		ID:      fmt.Sprintf("chatcmpl-%d", now),
		Object:  api.ObjectChatCompletion,
		Created: now,
		Model:   model,
		Choices: []api.Choice{{
			Index:        0,
			Message:      &api.ChatMessage{Role: string(api.Assistant), Content: text},
			FinishReason: finish,
		}},
	}, nil
}

func (c *codec) ParseChunk(payload []byte, model string) (*api.ChatResponse, error) {
	var wire wireResponse
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	if len(wire.Candidates) == 0 {
		// Nothing representable in this payload.
		return nil, nil
	}

	cand := wire.Candidates[0]
	text := ""
	if len(cand.Content.Parts) > 0 {
		text = cand.Content.Parts[0].Text
	}

	// Unlike a final response, a chunk without a mapped vendor finish
	// reason stays open: the turn may not be complete yet.
	finish := ""
	if cand.FinishReason != "" {
		finish = finishReasons[cand.FinishReason]
	}

	now := time.Now().Unix()

	return &api.ChatResponse{
		ID:      fmt.Sprintf("chatcmpl-%d", now),
		Object:  api.ObjectChatChunk,
		Created: now,
		Model:   model,
		Choices: []api.Choice{{
			Index:        0,
			Delta:        &api.ChatMessage{Content: text},
			FinishReason: finish,
		}},
	}, nil
}
