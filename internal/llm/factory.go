package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a new LLM provider based on configuration.
// Missing credentials are read from the environment.
func NewProvider(config Config) (Provider, error) {
	config = LoadConfigFromEnv(config)
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "groq":
		return NewGroqProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (set llm.provider or --llm-provider)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: groq, openai, anthropic, ollama)", config.Provider)
	}
}
