package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/jwebster45206/stage-engine/pkg/engine"
)

const (
	defaultOllamaURL       = "http://localhost:11434"
	DefaultOllamaMaxTokens = 512
)

// OllamaService implements the LLMService interface for a self-hosted Ollama server
type OllamaService struct {
	client      *api.Client
	modelName   string
	temperature float64
	logger      *slog.Logger

	retryDelay time.Duration
}

// Ensure OllamaService implements LLMService
var _ LLMService = (*OllamaService)(nil)

// NewOllamaService creates a new Ollama service instance. baseURL must not
// carry the OpenAI-compatible /v1 suffix; it is stripped if present.
func NewOllamaService(baseURL string, modelName string, timeout time.Duration, logger *slog.Logger) (*OllamaService, error) {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &OllamaService{
		client:      api.NewClient(parsed, &http.Client{Timeout: timeout}),
		modelName:   modelName,
		temperature: DefaultOpenAITemperature,
		logger:      logger,
		retryDelay:  2 * time.Second,
	}, nil
}

func (s *OllamaService) ModelName() string {
	return s.modelName
}

// InitModel waits for the server and pulls the model if it is missing
func (s *OllamaService) InitModel(ctx context.Context, modelName string) error {
	s.logger.Info("Initializing LLM model", "model", modelName)

	if err := s.waitForOllamaReady(ctx); err != nil {
		return fmt.Errorf("ollama service is not ready: %w", err)
	}

	ready, err := s.isModelReady(ctx, modelName)
	if err != nil {
		return fmt.Errorf("failed to check model readiness: %w", err)
	}
	if ready {
		s.logger.Info("Model already available", "model", modelName)
		return nil
	}

	s.logger.Info("Model not found, pulling it", "model", modelName)
	if err := s.pullModel(ctx, modelName); err != nil {
		return fmt.Errorf("failed to pull model: %w", err)
	}
	s.logger.Info("Model pulled successfully", "model", modelName)
	return nil
}

func (s *OllamaService) GenerateText(ctx context.Context, prompt string, params engine.GenerationParams) (string, error) {
	stream := false
	options := map[string]interface{}{
		"temperature": s.temperature,
		"num_predict": maxTokensOr(params, DefaultOllamaMaxTokens),
	}
	if stop := stopSequences(params, 0); len(stop) > 0 {
		options["stop"] = stop
	}
	if params.MaxContextLength > 0 {
		options["num_ctx"] = params.MaxContextLength
	}

	req := &api.ChatRequest{
		Model:    s.modelName,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options:  options,
	}

	var resp api.ChatResponse
	err := s.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	s.logger.Debug("Ollama generation complete",
		"model", s.modelName,
		"done_reason", resp.DoneReason,
		"prompt_tokens", resp.PromptEvalCount,
		"completion_tokens", resp.EvalCount)
	return resp.Message.Content, nil
}

// isModelReady checks if the specified model is available locally
func (s *OllamaService) isModelReady(ctx context.Context, modelName string) (bool, error) {
	list, err := s.client.List(ctx)
	if err != nil {
		return false, err
	}
	for _, model := range list.Models {
		if model.Name == modelName || strings.TrimSuffix(model.Name, ":latest") == modelName {
			return true, nil
		}
	}
	return false, nil
}

func (s *OllamaService) pullModel(ctx context.Context, modelName string) error {
	var lastStatus string
	return s.client.Pull(ctx, &api.PullRequest{Model: modelName}, func(p api.ProgressResponse) error {
		if p.Status != lastStatus {
			s.logger.Debug("Pulling model", "model", modelName, "status", p.Status)
			lastStatus = p.Status
		}
		return nil
	})
}

// waitForOllamaReady waits for Ollama service to be ready with retries
func (s *OllamaService) waitForOllamaReady(ctx context.Context) error {
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		err := s.client.Heartbeat(ctx)
		if err == nil {
			s.logger.Info("Ollama service is ready")
			return nil
		}
		s.logger.Debug("Ollama not ready yet", "error", err, "attempt", i+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}

	return fmt.Errorf("ollama service did not become ready after %d attempts", maxRetries)
}
