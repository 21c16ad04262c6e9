package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/stage-engine/internal/config"
	"github.com/jwebster45206/stage-engine/pkg/engine"
)

func TestNewLLMService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    LLMService
		wantErr string
	}{
		{name: "anthropic", cfg: config.Config{LLMProvider: "anthropic", AnthropicAPIKey: "k", ModelName: "claude"}, want: &AnthropicService{}},
		{name: "anthropic without key", cfg: config.Config{LLMProvider: "anthropic", ModelName: "claude"}, wantErr: "API key"},
		{name: "openai", cfg: config.Config{LLMProvider: "openai", OpenAIAPIKey: "k", ModelName: "gpt"}, want: &OpenAIService{}},
		{name: "venice", cfg: config.Config{LLMProvider: "Venice", VeniceAPIKey: "k", ModelName: "llama"}, want: &OpenAIService{}},
		{name: "ollama", cfg: config.Config{LLMProvider: "ollama", ModelName: "llama3.1", LLMTimeout: time.Second}, want: &OllamaService{}},
		{name: "mock", cfg: config.Config{LLMProvider: "mock"}, want: &MockLLMAPI{}},
		{name: "unknown", cfg: config.Config{LLMProvider: "parrot"}, wantErr: "invalid LLM provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewLLMService(&tt.cfg, discardLogger())
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, svc)
		})
	}
}

func TestWrap(t *testing.T) {
	mock := NewMockLLMAPI("hello")
	svc := Wrap(mock, NewEstimatingTokenCounter())
	assert.Equal(t, "mock", svc.ModelName())

	text, err := svc.GenerateText(context.Background(), "short prompt", engine.GenerationParams{MaxTokens: 900, MaxContextLength: 100})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, calls := mock.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 97, calls[0].Params.MaxTokens)
}
