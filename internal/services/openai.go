package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/jwebster45206/stage-engine/pkg/engine"
)

const (
	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 512

	// OpenAI-compatible APIs accept at most four stop sequences.
	openAIMaxStop = 4
)

// OpenAIService implements LLMService for OpenAI and any API that speaks
// the OpenAI chat completions protocol.
type OpenAIService struct {
	client      *openai.Client
	modelName   string
	temperature float32
	provider    string
	logger      *slog.Logger
}

// Ensure OpenAIService implements LLMService
var _ LLMService = (*OpenAIService)(nil)

// NewOpenAIService creates a client. An empty baseURL uses api.openai.com.
func NewOpenAIService(apiKey, modelName, baseURL string, timeout time.Duration, logger *slog.Logger) *OpenAIService {
	return newOpenAICompatible("openai", apiKey, modelName, baseURL, timeout, logger)
}

func newOpenAICompatible(provider, apiKey, modelName, baseURL string, timeout time.Duration, logger *slog.Logger) *OpenAIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIService{
		client:      openai.NewClientWithConfig(cfg),
		modelName:   modelName,
		temperature: DefaultOpenAITemperature,
		provider:    provider,
		logger:      logger,
	}
}

func (o *OpenAIService) InitModel(ctx context.Context, modelName string) error {
	return nil
}

func (o *OpenAIService) ModelName() string {
	return o.modelName
}

func (o *OpenAIService) GenerateText(ctx context.Context, prompt string, params engine.GenerationParams) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokensOr(params, DefaultOpenAIMaxTokens),
		Temperature: o.temperature,
		Stop:        stopSequences(params, openAIMaxStop),
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed: %w", o.provider, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	o.logger.Debug("Chat completion complete",
		"provider", o.provider,
		"model", o.modelName,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)
	return resp.Choices[0].Message.Content, nil
}
