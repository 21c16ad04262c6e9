package engine

import "context"

// GenerationParams are the knobs passed with every generation call.
type GenerationParams struct {
	MaxTokens        int      `json:"max_tokens,omitempty"`
	MinTokens        int      `json:"min_tokens,omitempty"`
	StopSequences    []string `json:"stop_sequences,omitempty"`
	IncludeHistory   bool     `json:"include_history"`
	Template         string   `json:"template,omitempty"`
	MaxContextLength int      `json:"max_context_length,omitempty"`
}

// TextGenerator is the external language model capability. Implementations
// must treat each call as self-contained: the prompt carries all context.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// TextGeneratorFunc adapts a function to TextGenerator.
type TextGeneratorFunc func(ctx context.Context, prompt string, params GenerationParams) (string, error)

func (f TextGeneratorFunc) GenerateText(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	return f(ctx, prompt, params)
}

// DefaultGenerationParams are used for chat-phase replies.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		MaxTokens:      400,
		MinTokens:      20,
		StopSequences:  []string{"\n{pc}:", "\n### "},
		IncludeHistory: false,
	}
}
