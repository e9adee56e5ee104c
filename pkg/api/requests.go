package api

type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
)

// ChatMessage is one turn of conversation history. Order is meaningful.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// ChatRequest carries the canonical parameters for a chat completion.
// Temperature, TopP and MaxTokens are pointers so an explicit zero can be
// told apart from "not set": unset temperature and top_p default to 1.0,
// unset max_tokens falls back to whatever the provider defines.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`

	// Model is resolved to the provider's default when empty.
	Model string `json:"model,omitempty"`

	Temperature *float64 `json:"temperature,omitempty" validate:"omitnil,gte=0,lte=2"`
	TopP        *float64 `json:"top_p,omitempty" validate:"omitnil,gte=0,lte=1"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitnil,gt=0"`

	Stream bool `json:"stream,omitempty"`

	// Extra holds provider-specific options merged into the wire body.
	// On key collision with the fixed fields above, Extra wins.
	Extra map[string]any `json:"-"`
}

// Clone returns a shallow copy safe to mutate during model resolution and
// parameter defaulting without touching the caller's request.
func (r *ChatRequest) Clone() *ChatRequest {
	clone := *r
	return &clone
}

// Float64 returns a pointer to v, for the optional request fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for the optional request fields.
func Int(v int) *int { return &v }
