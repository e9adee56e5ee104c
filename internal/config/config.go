package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// apiKeyEnv is the fixed provider-name to environment-key table. The Gemini
// adapter's identity is "gemini" but its credential is the Google key, so
// both names resolve to GOOGLE_API_KEY.
var apiKeyEnv = map[string]string{
	"groq":   "GROQ_API_KEY",
	"google": "GOOGLE_API_KEY",
	"gemini": "GOOGLE_API_KEY",
}

// defaultModels is the static provider-to-default-model table used when a
// request leaves the model unset.
var defaultModels = map[string]string{
	"groq":   "llama-3.3-70b-versatile",
	"gemini": "gemini-2.5-flash",
}

const (
	defaultChatTimeoutSeconds = 30
	// Streaming connections stay open while successive events arrive, so
	// they get a larger budget than single-shot calls.
	defaultStreamTimeoutSeconds = 60
)

type Config struct {
	Timeouts  TimeoutConfig    `mapstructure:"timeouts"`
	Providers []ProviderConfig `mapstructure:"providers"`
}

type TimeoutConfig struct {
	ChatSeconds   int `mapstructure:"chat_seconds"`
	StreamSeconds int `mapstructure:"stream_seconds"`
}

// ProviderConfig is everything an adapter needs at construction time.
type ProviderConfig struct {
	Name         string `mapstructure:"name"`
	APIKey       string `mapstructure:"api_key" validate:"required"`
	BaseURL      string `mapstructure:"base_url"`
	DefaultModel string `mapstructure:"default_model"`

	ChatTimeout   time.Duration `mapstructure:"-"`
	StreamTimeout time.Duration `mapstructure:"-"`
}

// LookupAPIKey is the credential source: it resolves a provider name
// through the fixed env-key table. Empty means no credential configured.
func LookupAPIKey(provider string) string {
	envKey, ok := apiKeyEnv[strings.ToLower(provider)]
	if !ok {
		return ""
	}
	return os.Getenv(envKey)
}

// APIKeyEnv returns the environment variable name holding the credential
// for a provider, for use in unavailability messages.
func APIKeyEnv(provider string) string {
	return apiKeyEnv[strings.ToLower(provider)]
}

// DefaultModel returns the static default model for a provider, or empty
// when the provider is unknown.
func DefaultModel(provider string) string {
	return defaultModels[strings.ToLower(provider)]
}

// LoadConfig reads configuration from an optional freeflow.yaml and the
// environment. A missing config file is not an error; credentials resolve
// through the env-key table in that case.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("freeflow")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("timeouts.chat_seconds", defaultChatTimeoutSeconds)
	v.SetDefault("timeouts.stream_seconds", defaultStreamTimeoutSeconds)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Resolve ENV: indirections in file-supplied keys.
	for i, p := range cfg.Providers {
		if strings.HasPrefix(p.APIKey, "ENV:") {
			envVar := strings.TrimPrefix(p.APIKey, "ENV:")
			val := os.Getenv(envVar)
			if val == "" {
				val = v.GetString(envVar)
			}
			cfg.Providers[i].APIKey = val
		}
	}

	return &cfg, nil
}

// Provider assembles the effective configuration for one provider: file
// overrides first, then the env-key table for the credential, then the
// static default-model table.
func (c *Config) Provider(name string) ProviderConfig {
	name = strings.ToLower(name)

	p := ProviderConfig{
		Name:          name,
		DefaultModel:  DefaultModel(name),
		ChatTimeout:   time.Duration(c.Timeouts.ChatSeconds) * time.Second,
		StreamTimeout: time.Duration(c.Timeouts.StreamSeconds) * time.Second,
	}
	if p.ChatTimeout <= 0 {
		p.ChatTimeout = defaultChatTimeoutSeconds * time.Second
	}
	if p.StreamTimeout <= 0 {
		p.StreamTimeout = defaultStreamTimeoutSeconds * time.Second
	}

	for _, o := range c.Providers {
		if !strings.EqualFold(o.Name, name) {
			continue
		}
		if o.APIKey != "" {
			p.APIKey = o.APIKey
		}
		if o.BaseURL != "" {
			p.BaseURL = o.BaseURL
		}
		if o.DefaultModel != "" {
			p.DefaultModel = o.DefaultModel
		}
	}

	if p.APIKey == "" {
		p.APIKey = LookupAPIKey(name)
	}

	return p
}
