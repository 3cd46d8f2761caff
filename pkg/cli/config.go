package cli

import (
	"context"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/utils/logging"
)

var errConfig = goerr.New("invalid configuration")

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
)

// Config holds configuration values read from the environment
type Config struct {
	Provider string `envconfig:"LLM_PROVIDER" default:"openai"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"warn"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`

	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `envconfig:"ANTHROPIC_BASE_URL"`

	// MCPConfig is a path to a YAML list of MCP servers
	MCPConfig string `envconfig:"MCP_CONFIG"`
}

// loadConfig reads .env if present, then the environment
func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, goerr.Wrap(errConfig, "failed to process env config", goerr.V("cause", err.Error()))
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch cfg.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderClaude:
	default:
		return nil, goerr.Wrap(errConfig, "unsupported LLM_PROVIDER",
			goerr.V("provider", cfg.Provider),
			goerr.V("supported", []string{ProviderOpenAI, ProviderGemini, ProviderClaude}))
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, goerr.Wrap(errConfig, "invalid LOG_LEVEL", goerr.V("level", cfg.LogLevel))
	}

	return &cfg, nil
}

// requireKey checks the credential of provider so the error names the
// missing variable
func requireKey(provider, key string) error {
	if strings.TrimSpace(key) != "" {
		return nil
	}

	name := "OPENAI_API_KEY"
	switch provider {
	case ProviderGemini:
		name = "GEMINI_API_KEY"
	case ProviderClaude:
		name = "ANTHROPIC_API_KEY"
	}
	return goerr.Wrap(errConfig, name+" is not set", goerr.V("provider", provider))
}

// newChatModel creates the chat model of the configured provider
func (cfg *Config) newChatModel(ctx context.Context) (adapter.ChatModel, error) {
	switch cfg.Provider {
	case ProviderGemini:
		if err := requireKey(ProviderGemini, cfg.GeminiAPIKey); err != nil {
			return nil, err
		}
		return adapter.NewGeminiChatModel(ctx, adapter.ModelConfig{APIKey: cfg.GeminiAPIKey})

	case ProviderClaude:
		if err := requireKey(ProviderClaude, cfg.AnthropicAPIKey); err != nil {
			return nil, err
		}
		return adapter.NewClaudeChatModel(adapter.ModelConfig{
			APIKey:  cfg.AnthropicAPIKey,
			BaseURL: cfg.AnthropicBaseURL,
		})

	default:
		if err := requireKey(ProviderOpenAI, cfg.OpenAIAPIKey); err != nil {
			return nil, err
		}
		return adapter.NewOpenAIChatModel(adapter.ModelConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}
}

// newEmbeddingModel creates the embedding model of the configured provider.
// Claude has no embedding API, so that provider embeds with OpenAI.
func (cfg *Config) newEmbeddingModel(ctx context.Context) (adapter.EmbeddingModel, error) {
	if cfg.Provider == ProviderGemini {
		if err := requireKey(ProviderGemini, cfg.GeminiAPIKey); err != nil {
			return nil, err
		}
		return adapter.NewGeminiEmbeddingModel(ctx, adapter.ModelConfig{APIKey: cfg.GeminiAPIKey})
	}

	if err := requireKey(ProviderOpenAI, cfg.OpenAIAPIKey); err != nil {
		return nil, err
	}
	return adapter.NewOpenAIEmbeddingModel(adapter.ModelConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
}
