package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/stage-engine/pkg/engine"
)

const mockDefaultReply = "*stays silent, watching you carefully*"

// MockLLMAPI is a mock implementation of LLMService for testing and for
// running the API without a model.
type MockLLMAPI struct {
	InitModelFunc    func(ctx context.Context, modelName string) error
	GenerateTextFunc func(ctx context.Context, prompt string, params engine.GenerationParams) (string, error)

	// Replies are returned in order before falling back to the default reply
	Replies []string

	// Track calls for testing
	InitModelCalls    []string
	GenerateTextCalls []GenerateTextCall

	mu sync.Mutex // protects all fields above
}

type GenerateTextCall struct {
	Prompt string
	Params engine.GenerationParams
}

// Ensure MockLLMAPI implements LLMService
var _ LLMService = (*MockLLMAPI)(nil)

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI(replies ...string) *MockLLMAPI {
	return &MockLLMAPI{
		Replies:           replies,
		InitModelCalls:    make([]string, 0),
		GenerateTextCalls: make([]GenerateTextCall, 0),
	}
}

func (m *MockLLMAPI) ModelName() string {
	return "mock"
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)
	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// GenerateText mocks text generation
func (m *MockLLMAPI) GenerateText(ctx context.Context, prompt string, params engine.GenerationParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateTextCalls = append(m.GenerateTextCalls, GenerateTextCall{Prompt: prompt, Params: params})

	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt, params)
	}
	if len(m.Replies) > 0 {
		reply := m.Replies[0]
		m.Replies = m.Replies[1:]
		return reply, nil
	}
	return mockDefaultReply, nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.GenerateTextCalls = make([]GenerateTextCall, 0)
}

// SetInitModelError sets up the mock to return an error on InitModel
func (m *MockLLMAPI) SetInitModelError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelFunc = func(ctx context.Context, modelName string) error {
		return err
	}
}

// SetGenerateTextError sets up the mock to return an error on GenerateText
func (m *MockLLMAPI) SetGenerateTextError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTextFunc = func(ctx context.Context, prompt string, params engine.GenerationParams) (string, error) {
		return "", err
	}
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() ([]string, []GenerateTextCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initCalls := make([]string, len(m.InitModelCalls))
	copy(initCalls, m.InitModelCalls)

	genCalls := make([]GenerateTextCall, len(m.GenerateTextCalls))
	copy(genCalls, m.GenerateTextCalls)

	return initCalls, genCalls
}
