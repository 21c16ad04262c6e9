package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/stage-engine/internal/config"
	"github.com/jwebster45206/stage-engine/pkg/engine"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// LLMService is a text generation backend. Every call is self-contained:
// the prompt carries the whole scene, so no conversation state is kept.
type LLMService interface {
	engine.TextGenerator

	// InitModel prepares the model on startup (pulling it, if the provider needs that)
	InitModel(ctx context.Context, modelName string) error

	// ModelName is the model used for generation
	ModelName() string
}

// NewLLMService builds the provider selected by cfg.LLMProvider.
func NewLLMService(cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required when using anthropic provider")
		}
		svc := NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, logger)
		svc.temperature = float64(cfg.Temperature)
		if cfg.BaseURL != "" {
			svc.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		}
		if cfg.LLMTimeout > 0 {
			svc.httpClient.Timeout = cfg.LLMTimeout
		}
		return svc, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key is required when using openai provider")
		}
		svc := NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, cfg.BaseURL, cfg.LLMTimeout, logger)
		svc.temperature = cfg.Temperature
		return svc, nil
	case "venice":
		if cfg.VeniceAPIKey == "" {
			return nil, fmt.Errorf("venice API key is required when using venice provider")
		}
		svc := NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName, cfg.LLMTimeout, logger)
		svc.temperature = cfg.Temperature
		return svc, nil
	case "ollama":
		svc, err := NewOllamaService(cfg.BaseURL, cfg.ModelName, cfg.LLMTimeout, logger)
		if err != nil {
			return nil, err
		}
		svc.temperature = float64(cfg.Temperature)
		return svc, nil
	case "mock":
		logger.Warn("Using mock LLM provider; replies are canned")
		return NewMockLLMAPI(), nil
	default:
		return nil, fmt.Errorf("invalid LLM provider %q (supported: anthropic, openai, venice, ollama, mock)", cfg.LLMProvider)
	}
}

// Wrap adds the context budget and Prometheus metrics around svc.
func Wrap(svc LLMService, counter *TokenCounter) LLMService {
	return NewInstrumentedService(NewBudgetedService(svc, counter), counter)
}

// maxTokensOr returns the requested completion budget or fallback.
func maxTokensOr(params engine.GenerationParams, fallback int) int {
	if params.MaxTokens > 0 {
		return params.MaxTokens
	}
	return fallback
}

// stopSequences drops blank entries, which most providers reject.
func stopSequences(params engine.GenerationParams, limit int) []string {
	var out []string
	for _, s := range params.StopSequences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
