package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jwebster45206/stage-engine/pkg/engine"
)

// ErrContextExceeded is returned when the prompt leaves no room for a reply.
var ErrContextExceeded = errors.New("prompt exceeds the model context length")

// TokenCounter estimates prompt sizes. Local models do not share OpenAI's
// tokenizer, so counts are approximate for them.
type TokenCounter struct {
	count func(string) int
}

// NewTokenCounter uses the tiktoken encoding for model, then cl100k_base,
// then a four-characters-per-token estimate when no encoding can be loaded.
func NewTokenCounter(model string, logger *slog.Logger) *TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	}
	if err != nil {
		logger.Warn("Token encoding unavailable, estimating from length", "model", model, "error", err)
		return NewEstimatingTokenCounter()
	}
	return &TokenCounter{count: func(s string) int {
		return len(enc.Encode(s, nil, nil))
	}}
}

// NewEstimatingTokenCounter counts roughly four characters per token.
func NewEstimatingTokenCounter() *TokenCounter {
	return &TokenCounter{count: func(s string) int {
		if s == "" {
			return 0
		}
		return (len(s) + 3) / 4
	}}
}

func (c *TokenCounter) Count(text string) int {
	return c.count(text)
}

// BudgetedService fits the completion budget inside params.MaxContextLength.
// MaxTokens is lowered to the room the prompt leaves; when even MinTokens
// does not fit the call fails without reaching the model.
type BudgetedService struct {
	next    LLMService
	counter *TokenCounter
}

// Ensure BudgetedService implements LLMService
var _ LLMService = (*BudgetedService)(nil)

func NewBudgetedService(next LLMService, counter *TokenCounter) *BudgetedService {
	return &BudgetedService{next: next, counter: counter}
}

func (s *BudgetedService) InitModel(ctx context.Context, modelName string) error {
	return s.next.InitModel(ctx, modelName)
}

func (s *BudgetedService) ModelName() string {
	return s.next.ModelName()
}

func (s *BudgetedService) GenerateText(ctx context.Context, prompt string, params engine.GenerationParams) (string, error) {
	if params.MaxContextLength <= 0 {
		return s.next.GenerateText(ctx, prompt, params)
	}

	room := params.MaxContextLength - s.counter.Count(prompt)
	need := params.MinTokens
	if need < 1 {
		need = 1
	}
	if room < need {
		return "", fmt.Errorf("%w: %d tokens left, %d needed", ErrContextExceeded, room, need)
	}
	if params.MaxTokens <= 0 || params.MaxTokens > room {
		params.MaxTokens = room
	}
	return s.next.GenerateText(ctx, prompt, params)
}
