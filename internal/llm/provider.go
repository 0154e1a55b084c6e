// Package llm generates answers from grounded prompts through a configured
// chat model, either a local Ollama server or the OpenAI API.
package llm

import (
	"context"
	"fmt"

	"github.com/raghul-ravi/rag-it/internal/config"
)

// temperature used for every chat request, local or remote.
const temperature = 0.7

// Provider generates an answer from a system prompt and a user message.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, user string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// New constructs the provider selected by cfg. A remote provider with a
// missing API key fails here, before anything has touched the network.
func New(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case config.LLMLocal:
		return NewOllamaProvider(cfg.Local.BaseURL, cfg.Local.Model), nil
	case config.LLMRemote:
		return NewOpenAIProvider(cfg.Remote.Model, cfg.Remote.APIKeyEnv)
	default:
		return nil, fmt.Errorf("unknown llm provider %q (use %q or %q)",
			cfg.Provider, config.LLMLocal, config.LLMRemote)
	}
}
