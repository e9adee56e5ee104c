package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freeflowlabs/freeflow/internal/config"
	"github.com/freeflowlabs/freeflow/internal/llm"
	"github.com/freeflowlabs/freeflow/pkg/api"
)

func TestShape_ExtractsSystemInstruction(t *testing.T) {
	contents, system := Shape([]api.ChatMessage{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
	})

	assert.Equal(t, "be terse", system)
	// System messages never land in contents.
	assert.Equal(t, []Content{
		{Role: "user", Parts: []Part{{Text: "hi"}}},
	}, contents)
}

func TestShape_RoleMappingAndLastSystemWins(t *testing.T) {
	contents, system := Shape([]api.ChatMessage{
		{Role: "system", Content: "first"},
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
		{Role: "system", Content: "second"},
	})

	assert.Equal(t, "second", system)
	assert.Equal(t, []Content{
		{Role: "user", Parts: []Part{{Text: "question"}}},
		{Role: "model", Parts: []Part{{Text: "answer"}}},
	}, contents)
}

func TestRequestPayload(t *testing.T) {
	c := &codec{apiKey: "k"}

	path, body, err := c.RequestPayload(&api.ChatRequest{
		Messages: []api.ChatMessage{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "hi"},
		},
		Model:       "gemini-2.5-flash",
		Temperature: api.Float64(0.5),
		TopP:        api.Float64(0.9),
	})

	assert.NoError(t, err)
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", path)

	generation := body["generationConfig"].(map[string]any)
	assert.Equal(t, 0.5, generation["temperature"])
	assert.Equal(t, 0.9, generation["topP"])
	// maxOutputTokens is omitted, not defaulted, when unset.
	assert.NotContains(t, generation, "maxOutputTokens")

	system := body["systemInstruction"].(map[string]any)
	assert.Equal(t, []Part{{Text: "be terse"}}, system["parts"])
}

func TestRequestPayload_StreamEndpointAndMaxTokens(t *testing.T) {
	c := &codec{apiKey: "k"}

	path, body, err := c.RequestPayload(&api.ChatRequest{
		Messages:  []api.ChatMessage{{Role: "user", Content: "hi"}},
		Model:     "gemini-2.5-flash",
		MaxTokens: api.Int(256),
		Stream:    true,
	})

	assert.NoError(t, err)
	assert.Equal(t, "/models/gemini-2.5-flash:streamGenerateContent?alt=sse", path)
	generation := body["generationConfig"].(map[string]any)
	assert.Equal(t, 256, generation["maxOutputTokens"])
	assert.NotContains(t, body, "systemInstruction")
}

func TestRequestPayload_ExtraWinsOnCollision(t *testing.T) {
	c := &codec{apiKey: "k"}

	_, body, err := c.RequestPayload(&api.ChatRequest{
		Messages: []api.ChatMessage{{Role: "user", Content: "hi"}},
		Model:    "gemini-2.5-flash",
		Extra: map[string]any{
			"safetySettings":   []string{"BLOCK_NONE"},
			"generationConfig": map[string]any{"temperature": 0.1},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"BLOCK_NONE"}, body["safetySettings"])
	assert.Equal(t, map[string]any{"temperature": 0.1}, body["generationConfig"])
}

func TestFinalFinishReason_Table(t *testing.T) {
	cases := map[string]string{
		"STOP":       "stop",
		"MAX_TOKENS": "length",
		"SAFETY":     "content_filter",
		"RECITATION": "content_filter",
		"OTHER":      "stop",
		"BLOCKLIST":  "stop", // unmapped vendor value
		"":           "stop", // absent
	}
	for vendor, want := range cases {
		assert.Equal(t, want, finalFinishReason(vendor), vendor)
	}
}

func TestParseChunk_FinishReasonStaysOpen(t *testing.T) {
	c := &codec{apiKey: "k"}

	// No vendor finish reason: the turn may be incomplete.
	chunk, err := c.ParseChunk([]byte(`{"candidates":[{"content":{"parts":[{"text":"A"}]}}]}`), "m")
	assert.NoError(t, err)
	assert.Empty(t, chunk.Choices[0].FinishReason)
	assert.Equal(t, "A", chunk.Choices[0].Delta.Content)

	// Mapped vendor finish reason.
	chunk, err = c.ParseChunk([]byte(`{"candidates":[{"content":{"parts":[{"text":"B"}]},"finishReason":"MAX_TOKENS"}]}`), "m")
	assert.NoError(t, err)
	assert.Equal(t, "length", chunk.Choices[0].FinishReason)

	// Unmapped vendor finish reason stays open on a chunk.
	chunk, err = c.ParseChunk([]byte(`{"candidates":[{"content":{"parts":[{"text":"C"}]},"finishReason":"WEIRD"}]}`), "m")
	assert.NoError(t, err)
	assert.Empty(t, chunk.Choices[0].FinishReason)
}

func TestParseChunk_NoCandidatesSkipped(t *testing.T) {
	c := &codec{apiKey: "k"}

	chunk, err := c.ParseChunk([]byte(`{"candidates":[]}`), "m")
	assert.NoError(t, err)
	assert.Nil(t, chunk)
}

func newAdapter(t *testing.T, serverURL string) llm.Provider {
	t.Helper()
	p, err := New(config.ProviderConfig{
		Name:         "gemini",
		APIKey:       "test-key",
		BaseURL:      serverURL,
		DefaultModel: "gemini-2.5-flash",
	})
	assert.NoError(t, err)
	return p
}

func TestGeminiChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "contents")
		assert.Contains(t, body, "generationConfig")

		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "hello"}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer server.Close()

	adapter := newAdapter(t, server.URL)

	resp, err := adapter.Chat(context.Background(), &api.ChatRequest{
		Messages: []api.ChatMessage{{Role: "user", Content: "hi"}},
	})

	assert.NoError(t, err)
	assert.Equal(t, "gemini", resp.Provider)
	assert.Contains(t, resp.ID, "chatcmpl-")
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Len(t, resp.Choices, 1)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.Equal(t, "hello", resp.Choices[0].Message.Content)
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.Nil(t, resp.Usage)
}

func TestGeminiChat_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	adapter := newAdapter(t, server.URL)

	resp, err := adapter.Chat(context.Background(), &api.ChatRequest{
		Messages: []api.ChatMessage{{Role: "user", Content: "hi"}},
	})

	assert.NoError(t, err)
	assert.Equal(t, "", resp.Content())
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
}

func TestGeminiUnavailable(t *testing.T) {
	p, err := New(config.ProviderConfig{Name: "gemini"})
	assert.NoError(t, err)
	assert.False(t, p.Available())

	_, err = p.Chat(context.Background(), &api.ChatRequest{
		Messages: []api.ChatMessage{{Role: "user", Content: "hi"}},
	})

	var unavailable *api.ProviderUnavailableError
	assert.True(t, errors.As(err, &unavailable))
	assert.Contains(t, unavailable.Detail, "GOOGLE_API_KEY")
}

func TestGeminiStream_MatchesChatContent(t *testing.T) {
	const full = "AB"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/gemini-2.5-flash:streamGenerateContent":
			assert.Equal(t, "sse", r.URL.Query().Get("alt"))
			_, _ = w.Write([]byte("data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"A\"}]}}]}\n\n"))
			_, _ = w.Write([]byte("data: {\"candidates\":[]}\n\n")) // skipped
			_, _ = w.Write([]byte("data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"B\"}]},\"finishReason\":\"STOP\"}]}\n\n"))
		default:
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + full + `"}]},"finishReason":"STOP"}]}`))
		}
	}))
	defer server.Close()

	adapter := newAdapter(t, server.URL)
	req := &api.ChatRequest{Messages: []api.ChatMessage{{Role: "user", Content: "hi"}}}

	ch, err := adapter.Stream(context.Background(), req)
	assert.NoError(t, err)

	var streamed string
	var chunks []*api.ChatResponse
	for res := range ch {
		assert.NoError(t, res.Err)
		chunks = append(chunks, res.Response)
		streamed += res.Response.Content()
	}

	assert.Len(t, chunks, 2)
	assert.Empty(t, chunks[0].Choices[0].FinishReason)
	assert.Equal(t, "stop", chunks[1].Choices[0].FinishReason)

	resp, err := adapter.Chat(context.Background(), req)
	assert.NoError(t, err)

	// Concatenated deltas reconstruct the single-shot content.
	assert.Equal(t, full, streamed)
	assert.Equal(t, resp.Content(), streamed)
}
