package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/persona/internal/model"
)

// envPrefix prefixes every config variable, e.g. PERSONA_LLM_PROVIDER
const envPrefix = "PERSONA"

// credentialEnv maps config keys to the conventional variables also accepted
var credentialEnv = map[string]string{
	"reddit.client_id":     "REDDIT_CLIENT_ID",
	"reddit.client_secret": "REDDIT_CLIENT_SECRET",
	"reddit.user_agent":    "REDDIT_USER_AGENT",
}

// initConfig points v at the config file and environment
func initConfig(v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(dir)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	setDefaults(v, model.DefaultConfig())
	bindEnv(v)

	// A missing default config file is fine; a missing explicit one is not
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// bindEnv enables PERSONA_* variables for every key, plus the credential
// variables without prefix
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range credentialEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, env)
	}
}

// setDefaults registers every key so env variables reach Unmarshal
func setDefaults(v *viper.Viper, d *model.Config) {
	v.SetDefault("reddit.mode", d.Reddit.Mode)
	v.SetDefault("reddit.client_id", d.Reddit.ClientID)
	v.SetDefault("reddit.client_secret", d.Reddit.ClientSecret)
	v.SetDefault("reddit.user_agent", d.Reddit.UserAgent)
	v.SetDefault("reddit.page_size", d.Reddit.PageSize)
	v.SetDefault("reddit.request_interval", d.Reddit.RequestInterval)

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.http_proxy", d.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", d.HTTP.HTTPSProxy)
	v.SetDefault("http.no_proxy", d.HTTP.NoProxy)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.max_age", d.Cache.MaxAge)
	v.SetDefault("cache.memory_ttl", d.Cache.MemoryTTL)

	v.SetDefault("fetch.item_limit", d.Fetch.ItemLimit)
	v.SetDefault("fetch.max_retries", d.Fetch.MaxRetries)

	v.SetDefault("corpus.max_item_chars", d.Corpus.MaxItemChars)
	v.SetDefault("corpus.max_chars", d.Corpus.MaxChars)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.summary_max_tokens", d.LLM.SummaryMaxTokens)
	v.SetDefault("llm.persona_max_tokens", d.LLM.PersonaMaxTokens)
	v.SetDefault("llm.cache_ttl", d.LLM.CacheTTL)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.verbose", d.Output.Verbose)
	v.SetDefault("output.log_json", d.Output.LogJSON)

	v.SetDefault("concurrency.workers", d.Concurrency.Workers)
}

// loadConfig resolves the effective configuration from v
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *model.Config) error {
	switch cfg.Reddit.Mode {
	case model.ModeOAuth, model.ModePublic, model.ModeFeed:
	default:
		return fmt.Errorf("invalid reddit.mode %q (oauth, public, feed)", cfg.Reddit.Mode)
	}
	if cfg.Fetch.ItemLimit <= 0 {
		return fmt.Errorf("fetch.item_limit must be positive, got %d", cfg.Fetch.ItemLimit)
	}
	if cfg.Reddit.PageSize <= 0 || cfg.Reddit.PageSize > 100 {
		return fmt.Errorf("reddit.page_size must be within 1..100, got %d", cfg.Reddit.PageSize)
	}
	return nil
}

// maskSecret keeps enough of a secret to recognize it
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// redacted returns a copy of cfg safe to print
func redacted(cfg *model.Config) *model.Config {
	c := *cfg
	c.Reddit.ClientSecret = maskSecret(c.Reddit.ClientSecret)
	c.LLM.APIKey = maskSecret(c.LLM.APIKey)
	return &c
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Persona configuration",
	Long: `Manage Persona configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (PERSONA_*, REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, ...)
3. Config file (~/.persona/config.yaml)
4. Defaults

.env.local and .env in the working directory are loaded into the environment first.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after defaults, config file and environment are applied. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(redacted(cfg))
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		_, err = cmd.OutOrStdout().Write(yamlData)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.persona/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := configDir()
		if err != nil {
			return err
		}
		configPath := filepath.Join(dir, "config.yaml")

		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Created default configuration: %s\n", configPath)
		fmt.Fprintf(out, "\nTo view the configuration:\n")
		fmt.Fprintf(out, "  persona config show\n")
		fmt.Fprintf(out, "\nTo customize, edit the file with your preferred editor:\n")
		fmt.Fprintf(out, "  $EDITOR %s\n", configPath)
		return nil
	},
}

// writeDefaultConfig writes the defaults to path, refusing to overwrite
func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'persona config show' to view it, or delete it first to recreate", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Persona Configuration File\n")
	b.WriteString("#\n")
	b.WriteString("# Configuration hierarchy (highest to lowest priority):\n")
	b.WriteString("#   1. CLI flags\n")
	b.WriteString("#   2. Environment variables (PERSONA_*)\n")
	b.WriteString("#   3. This config file\n")
	b.WriteString("#   4. Built-in defaults\n\n")
	b.Write(yamlData)
	b.WriteString("\n# Credentials (recommended to use environment variables or .env instead):\n")
	b.WriteString("#   REDDIT_CLIENT_ID=...\n")
	b.WriteString("#   REDDIT_CLIENT_SECRET=...\n")
	b.WriteString("#   GROQ_API_KEY=gsk_...\n")
	b.WriteString("#   OPENAI_API_KEY=sk-...\n")
	b.WriteString("#   ANTHROPIC_API_KEY=sk-ant-...\n")
	b.WriteString("#   OLLAMA_BASE_URL=http://localhost:11434\n")

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
