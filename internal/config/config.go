package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string     `envconfig:"PORT" default:"8080"`
	Environment string     `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    slog.Level `ignored:"true"`
	RawLogLevel string     `envconfig:"LOG_LEVEL" default:"info"`

	RedisURL string `envconfig:"REDIS_URL" default:"localhost:6379"`
	DataDir  string `envconfig:"DATA_DIR" default:"data"`

	// LLM provider: anthropic, openai, venice, ollama or mock
	LLMProvider     string        `envconfig:"LLM_PROVIDER" default:"ollama"`
	ModelName       string        `envconfig:"MODEL_NAME" default:"llama3.1"`
	BaseURL         string        `envconfig:"LLM_BASE_URL"`
	AnthropicAPIKey string        `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string        `envconfig:"OPENAI_API_KEY"`
	VeniceAPIKey    string        `envconfig:"VENICE_API_KEY"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"2m"`
	Temperature     float32       `envconfig:"LLM_TEMPERATURE" default:"0.8"`

	// Prompts longer than this are trimmed from the oldest transcript lines. 0 disables.
	MaxContextTokens int `envconfig:"MAX_CONTEXT_TOKENS" default:"6000"`

	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionLockTTL time.Duration `envconfig:"SESSION_LOCK_TTL" default:"2m"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected provider has what it needs.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when using anthropic provider")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when using openai provider")
		}
	case "venice":
		if c.VeniceAPIKey == "" {
			return fmt.Errorf("VENICE_API_KEY is required when using venice provider")
		}
	case "ollama", "mock":
	default:
		return fmt.Errorf("invalid LLM provider %q (supported: anthropic, openai, venice, ollama, mock)", c.LLMProvider)
	}
	if c.ModelName == "" {
		return fmt.Errorf("MODEL_NAME is required")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
