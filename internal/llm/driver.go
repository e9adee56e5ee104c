package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/freeflowlabs/freeflow/internal/config"
	"github.com/freeflowlabs/freeflow/internal/httpclient"
	"github.com/freeflowlabs/freeflow/pkg/api"
)

// Codec is the vendor-specific half of an adapter: pure translations
// between the canonical shapes and one vendor's wire format. The Client
// drives transport, parameter defaulting and error classification around
// it so every vendor gets identical policy.
type Codec interface {
	// RequestHeaders returns authentication and content headers.
	RequestHeaders() map[string]string

	// RequestPayload translates a canonical request (model resolved,
	// temperature and top_p already defaulted) into an endpoint path and
	// wire body.
	RequestPayload(req *api.ChatRequest) (endpointPath string, body map[string]any, err error)

	// ParseResponse maps a full vendor reply onto the canonical shape.
	ParseResponse(body []byte, model string) (*api.ChatResponse, error)

	// ParseChunk maps one SSE payload onto a canonical chunk. Returning
	// (nil, nil) marks the payload as carrying nothing representable;
	// the driver yields nothing for it.
	ParseChunk(payload []byte, model string) (*api.ChatResponse, error)
}

// endOfStream is the SSE sentinel terminating a completion stream.
const endOfStream = "[DONE]"

// errStreamDone stops the transport read loop once the sentinel arrives.
var errStreamDone = errors.New("stream done")

// Client binds a vendor codec to transport and configuration, implementing
// the Provider contract. Streaming calls get a separate HTTP client with a
// larger timeout since those connections stay open between events.
type Client struct {
	name   string
	codec  Codec
	cfg    config.ProviderConfig
	base   string
	http   *http.Client
	stream *http.Client
}

// NewClient wires a codec into a driver. defaultBaseURL is the vendor
// endpoint used unless the configuration overrides it.
func NewClient(name string, codec Codec, cfg config.ProviderConfig, defaultBaseURL string) *Client {
	base := defaultBaseURL
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}

	chatTimeout := cfg.ChatTimeout
	if chatTimeout <= 0 {
		chatTimeout = 30 * time.Second
	}
	streamTimeout := cfg.StreamTimeout
	if streamTimeout <= 0 {
		streamTimeout = 60 * time.Second
	}

	return &Client{
		name:   name,
		codec:  codec,
		cfg:    cfg,
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: chatTimeout},
		stream: &http.Client{Timeout: streamTimeout},
	}
}

func (c *Client) Name() string { return c.name }

func (c *Client) Available() bool { return c.cfg.APIKey != "" }

func (c *Client) DefaultModel() string { return c.cfg.DefaultModel }

func (c *Client) unavailable() error {
	detail := c.name + " API key missing"
	if envKey := config.APIKeyEnv(c.name); envKey != "" {
		detail += " (set " + envKey + ")"
	}
	return &api.ProviderUnavailableError{Provider: c.name, Detail: detail}
}

// prepare clones the request, resolves the default model and applies the
// canonical parameter defaults before the codec sees it.
func (c *Client) prepare(req *api.ChatRequest, stream bool) *api.ChatRequest {
	r := req.Clone()
	if r.Model == "" {
		r.Model = c.cfg.DefaultModel
	}
	if r.Temperature == nil {
		r.Temperature = api.Float64(1.0)
	}
	if r.TopP == nil {
		r.TopP = api.Float64(1.0)
	}
	r.Stream = stream
	return r
}

func (c *Client) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	if !c.Available() {
		return nil, c.unavailable()
	}

	r := c.prepare(req, false)
	path, body, err := c.codec.RequestPayload(r)
	if err != nil {
		return nil, &api.ProviderError{Provider: c.name, Detail: err.Error()}
	}

	var raw json.RawMessage
	if err := httpclient.SendRequest(ctx, c.http, http.MethodPost, c.base+path, c.codec.RequestHeaders(), body, &raw); err != nil {
		return nil, WrapError(c.name, err)
	}

	resp, err := c.codec.ParseResponse(raw, r.Model)
	if err != nil {
		return nil, &api.ProviderError{Provider: c.name, Detail: fmt.Sprintf("malformed response: %v", err)}
	}
	resp.Provider = c.name
	return resp, nil
}

func (c *Client) Stream(ctx context.Context, req *api.ChatRequest) (<-chan api.StreamResult, error) {
	if !c.Available() {
		return nil, c.unavailable()
	}

	r := c.prepare(req, true)
	path, body, err := c.codec.RequestPayload(r)
	if err != nil {
		return nil, &api.ProviderError{Provider: c.name, Detail: err.Error()}
	}

	url := c.base + path
	headers := c.codec.RequestHeaders()

	ch := make(chan api.StreamResult)

	go func() {
		defer close(ch)

		err := httpclient.StreamRequest(ctx, c.stream, http.MethodPost, url, headers, body, func(line string) error {
			if !strings.HasPrefix(line, "data: ") {
				return nil
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == endOfStream {
				return errStreamDone
			}

			chunk, err := c.codec.ParseChunk([]byte(payload), r.Model)
			if err != nil || chunk == nil {
				// Unparseable or unrepresentable payloads are skipped,
				// never fatal; the sequence continues.
				return nil
			}
			chunk.Provider = c.name

			select {
			case ch <- api.StreamResult{Response: chunk}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		if err != nil && !errors.Is(err, errStreamDone) {
			select {
			case ch <- api.StreamResult{Err: WrapError(c.name, err)}:
			case <-ctx.Done():
			}
		}
	}()

	return ch, nil
}
