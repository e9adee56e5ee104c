package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freeflowlabs/freeflow/pkg/api"
)

func TestStruct_Valid(t *testing.T) {
	v := New()

	err := v.Struct(&api.ChatRequest{
		Messages:    []api.ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: api.Float64(0), // explicit zero is valid
		TopP:        api.Float64(1),
		MaxTokens:   api.Int(1),
	})

	assert.NoError(t, err)
}

func TestStruct_EmptyMessages(t *testing.T) {
	v := New()

	err := v.Struct(&api.ChatRequest{})

	var verr *api.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "messages")
}

func TestStruct_OutOfRangeParams(t *testing.T) {
	v := New()

	err := v.Struct(&api.ChatRequest{
		Messages:    []api.ChatMessage{{Role: "user", Content: "hi"}},
		Temperature: api.Float64(2.5),
		TopP:        api.Float64(-0.1),
		MaxTokens:   api.Int(0),
	})

	var verr *api.ValidationError
	assert.True(t, errors.As(err, &verr))
	// Field names come from the json tags, not the Go field names.
	assert.Contains(t, verr.Fields, "temperature")
	assert.Contains(t, verr.Fields, "top_p")
	assert.Contains(t, verr.Fields, "max_tokens")
}

func TestStruct_BadMessageRole(t *testing.T) {
	v := New()

	err := v.Struct(&api.ChatRequest{
		Messages: []api.ChatMessage{{Role: "narrator", Content: "hi"}},
	})

	var verr *api.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "role")
}
