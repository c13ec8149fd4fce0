// Package summarize asks an LLM provider for a short architectural summary
// of a module. It never returns an error to the caller: every failure is
// turned into a human-readable string, so a failed summary cannot block a
// graph that was built successfully.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

const (
	// DefaultOllamaEndpoint is used when a local provider has no endpoint.
	DefaultOllamaEndpoint = "http://localhost:11434"

	// MissingKeyMessage is returned when a cloud provider has no API key.
	MissingKeyMessage = "Enter an API key to get semantic insights."

	errorPrefix = "LLM Error: "
)

// ErrMissingAPIKey is returned by NewClient for a cloud provider without a key.
var ErrMissingAPIKey = errors.New("missing API key")

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"apiKey"`

	// Endpoint is the base URL of the local provider; cloud providers
	// ignore it.
	Endpoint string `mapstructure:"endpoint"`

	// Timeout bounds a single request. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout"`
}

// IsLocal reports whether the provider runs locally and needs no API key.
func (c ProviderConfig) IsLocal() bool {
	return c.Provider == ProviderOllama
}

// Client completes a single prompt.
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ArchitecturePrompt builds the prompt asking for a module's architectural pattern.
func ArchitecturePrompt(source string) string {
	return "Explain the architectural pattern of this code briefly: \n\n" + source
}

// NewClient creates the client for cfg.Provider.
func NewClient(ctx context.Context, cfg ProviderConfig) (Client, error) {
	if !cfg.IsLocal() && cfg.APIKey == "" {
		switch cfg.Provider {
		case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
			return nil, ErrMissingAPIKey
		}
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg.APIKey, cfg.Model, openAIBaseURL, nil), nil
	case ProviderAnthropic:
		return newAnthropicClient(cfg.APIKey, cfg.Model, anthropicBaseURL, nil), nil
	case ProviderGemini:
		return newGeminiClient(ctx, cfg.APIKey, cfg.Model, "", nil)
	case ProviderOllama:
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = DefaultOllamaEndpoint
		}
		return newOllamaClient(cfg.Model, endpoint, nil), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// Summarize sends prompt to the configured provider and returns the
// generated text, or a message describing why no summary is available.
func Summarize(ctx context.Context, prompt string, cfg ProviderConfig) string {
	text, err := complete(ctx, prompt, cfg)
	if err != nil {
		return ErrorMessage(err)
	}
	return text
}

func complete(ctx context.Context, prompt string, cfg ProviderConfig) (string, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return "", err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	text, err := client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", client.Name(), err)
	}
	return strings.TrimSpace(text), nil
}

// ErrorMessage renders err the way Summarize reports a failure.
func ErrorMessage(err error) string {
	if errors.Is(err, ErrMissingAPIKey) {
		return MissingKeyMessage
	}
	return errorPrefix + err.Error()
}

// IsFailure reports whether a Summarize result describes a failure rather
// than generated text.
func IsFailure(result string) bool {
	return result == MissingKeyMessage || strings.HasPrefix(result, errorPrefix)
}
