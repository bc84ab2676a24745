package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ppiankov/persona/internal/model"
)

// ErrGeneratorFailure wraps every failure of the persona generator
var ErrGeneratorFailure = errors.New("persona generation failed")

// sectionError is a provider failure while generating one section. It
// matches both ErrGeneratorFailure and the provider's error.
type sectionError struct {
	section string
	err     error
}

func (e *sectionError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrGeneratorFailure, e.section, e.err)
}

func (e *sectionError) Unwrap() []error {
	return []error{ErrGeneratorFailure, e.err}
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's text
	Complete(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request is a single completion request
type Request struct {
	// System is the system instruction
	System string

	// Prompt is the user message
	Prompt string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling
	Temperature float32
}

// Response is the model output
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "groq", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens is the default response length
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "groq",
		Model:     groqDefaultModel,
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts runtime configuration to llm.Config
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:   llmCfg.Provider,
		Model:      llmCfg.Model,
		APIKey:     llmCfg.APIKey,
		BaseURL:    llmCfg.BaseURL,
		Timeout:    llmCfg.Timeout,
		MaxTokens:  llmCfg.PersonaMaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	}
}

// apiKeyEnv names the credential variable of each hosted provider
var apiKeyEnv = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
}

// LoadConfigFromEnv fills credentials and endpoints missing from config
func LoadConfigFromEnv(config Config) Config {
	provider := strings.ToLower(config.Provider)
	if config.APIKey == "" {
		if env, ok := apiKeyEnv[provider]; ok {
			config.APIKey = os.Getenv(env)
		}
	}
	if provider == "ollama" && config.BaseURL == "" {
		config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return config
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
