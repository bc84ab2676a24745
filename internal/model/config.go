package model

import "time"

// Config holds all runtime configuration
type Config struct {
	Reddit      RedditConfig      `yaml:"reddit" mapstructure:"reddit"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Corpus      CorpusConfig      `yaml:"corpus" mapstructure:"corpus"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
}

// Source modes
const (
	ModeOAuth  = "oauth"  // oauth.reddit.com with app-only credentials
	ModePublic = "public" // www.reddit.com JSON listings, robots.txt gated
	ModeFeed   = "feed"   // Atom feeds, single page
)

// RedditConfig configures the source client
type RedditConfig struct {
	Mode            string        `yaml:"mode" mapstructure:"mode"`
	ClientID        string        `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret    string        `yaml:"client_secret" mapstructure:"client_secret"`
	UserAgent       string        `yaml:"user_agent" mapstructure:"user_agent"`
	PageSize        int           `yaml:"page_size" mapstructure:"page_size"`
	RequestInterval time.Duration `yaml:"request_interval" mapstructure:"request_interval"`
}

// HTTPConfig configures outbound HTTP
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the user record and generator caches
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MaxAge    time.Duration `yaml:"max_age" mapstructure:"max_age"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
}

// FetchConfig configures the fetch-cache coordinator
type FetchConfig struct {
	ItemLimit  int `yaml:"item_limit" mapstructure:"item_limit"`
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
}

// CorpusConfig bounds the prompt payload
type CorpusConfig struct {
	MaxItemChars int `yaml:"max_item_chars" mapstructure:"max_item_chars"`
	MaxChars     int `yaml:"max_chars" mapstructure:"max_chars"`
}

// LLMConfig configures the persona generator
type LLMConfig struct {
	Provider         string        `yaml:"provider" mapstructure:"provider"`
	Model            string        `yaml:"model" mapstructure:"model"`
	APIKey           string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL          string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout          int           `yaml:"timeout" mapstructure:"timeout"` // seconds
	SummaryMaxTokens int           `yaml:"summary_max_tokens" mapstructure:"summary_max_tokens"`
	PersonaMaxTokens int           `yaml:"persona_max_tokens" mapstructure:"persona_max_tokens"`
	CacheTTL         time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// OutputConfig configures report output
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	LogJSON bool   `yaml:"log_json" mapstructure:"log_json"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Reddit: RedditConfig{
			Mode:            ModeOAuth,
			UserAgent:       "persona/0.1 (+https://github.com/ppiankov/persona)",
			PageSize:        100,
			RequestInterval: time.Second,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "reddit_cache",
			MaxAge:    time.Hour,
			MemoryTTL: 10 * time.Minute,
		},
		Fetch: FetchConfig{
			ItemLimit:  20,
			MaxRetries: 3,
		},
		Corpus: CorpusConfig{
			MaxItemChars: 1200,
			MaxChars:     24000,
		},
		LLM: LLMConfig{
			Provider:         "groq",
			Model:            "llama-3.1-8b-instant",
			Timeout:          60,
			SummaryMaxTokens: 500,
			PersonaMaxTokens: 1200,
			CacheTTL:         7 * 24 * time.Hour,
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}
