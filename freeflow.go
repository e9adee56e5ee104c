// Package freeflow is a unifying client over hosted LLM chat APIs. It
// normalizes each vendor's request and response shapes into one canonical
// chat-completion representation, for single-shot and streamed calls, and
// classifies provider failures (rate limits in particular) uniformly.
//
// Rate-limit and failure signaling is this package's job; retrying is
// deliberately left to the caller.
package freeflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freeflowlabs/freeflow/internal/config"
	"github.com/freeflowlabs/freeflow/internal/llm"
	_ "github.com/freeflowlabs/freeflow/internal/llm/gemini"
	_ "github.com/freeflowlabs/freeflow/internal/llm/groq"
	"github.com/freeflowlabs/freeflow/internal/platform/logger"
	"github.com/freeflowlabs/freeflow/internal/validate"
	"github.com/freeflowlabs/freeflow/pkg/api"
)

// Client dispatches chat completions to the configured providers. It is a
// pure registry: one adapter instance per known provider, constructed once
// and reused across calls, safe for concurrent use.
type Client struct {
	log       *zap.Logger
	validate  *validate.Validator
	providers map[string]llm.Provider
}

type options struct {
	cfg     *config.Config
	log     *zap.Logger
	apiKeys map[string]string
}

type Option func(*options)

// WithConfig supplies an explicit configuration instead of loading
// freeflow.yaml and the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger replaces the default zap logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithAPIKey overrides the credential for one provider, bypassing the
// environment table. An empty key makes the provider unavailable.
func WithAPIKey(provider, key string) Option {
	return func(o *options) { o.apiKeys[strings.ToLower(provider)] = key }
}

// New builds one adapter per registered provider. Providers without a
// credential still construct; they report Available() == false and fail
// calls with a ProviderUnavailableError naming the missing key.
func New(opts ...Option) (*Client, error) {
	o := &options{apiKeys: make(map[string]string)}
	for _, opt := range opts {
		opt(o)
	}

	if o.cfg == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		o.cfg = cfg
	}
	if o.log == nil {
		o.log = logger.Get()
	}

	c := &Client{
		log:       o.log,
		validate:  validate.New(),
		providers: make(map[string]llm.Provider),
	}

	for _, name := range llm.Names() {
		pCfg := o.cfg.Provider(name)
		if key, ok := o.apiKeys[name]; ok {
			pCfg.APIKey = key
		}

		factory, err := llm.Get(name)
		if err != nil {
			return nil, err
		}
		p, err := factory(pCfg)
		if err != nil {
			return nil, fmt.Errorf("initializing provider %s: %w", name, err)
		}
		c.providers[name] = p
	}

	return c, nil
}

// Provider returns the adapter registered under name.
func (c *Client) Provider(name string) (llm.Provider, error) {
	p, ok := c.providers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return p, nil
}

// Providers lists the registered provider names, sorted.
func (c *Client) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Available reports whether the named provider has a usable credential.
func (c *Client) Available(name string) bool {
	p, err := c.Provider(name)
	return err == nil && p.Available()
}

// DefaultModel returns the model used when a request leaves Model empty.
func (c *Client) DefaultModel(name string) string {
	p, err := c.Provider(name)
	if err != nil {
		return ""
	}
	return p.DefaultModel()
}

// Chat performs a single-shot completion against the named provider.
func (c *Client) Chat(ctx context.Context, provider string, req *api.ChatRequest) (*api.ChatResponse, error) {
	p, err := c.Provider(provider)
	if err != nil {
		return nil, err
	}
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}

	log := c.log.With(
		zap.String("provider", p.Name()),
		zap.String("request_id", uuid.NewString()),
	)
	log.Debug("dispatching chat", zap.Int("messages", len(req.Messages)))

	resp, err := p.Chat(ctx, req)
	if err != nil {
		log.Warn("chat failed", zap.Error(err))
		return nil, err
	}

	log.Debug("chat complete", zap.String("id", resp.ID), zap.String("model", resp.Model))
	return resp, nil
}

// ChatStream performs a streaming completion against the named provider.
// The returned channel delivers canonical chunks and, on failure, a single
// terminal error element; cancel ctx to abandon the stream and release the
// underlying connection.
func (c *Client) ChatStream(ctx context.Context, provider string, req *api.ChatRequest) (<-chan api.StreamResult, error) {
	p, err := c.Provider(provider)
	if err != nil {
		return nil, err
	}
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}

	c.log.Debug("dispatching chat stream",
		zap.String("provider", p.Name()),
		zap.String("request_id", uuid.NewString()),
	)

	return p.Stream(ctx, req)
}
