package pipeline

import (
	"context"

	"github.com/temirov/self-discover/internal/stream"
)

// LLMRequest is one system instruction plus one user prompt. Zero values for
// Model, MaxTokens and Temperature defer to the client's defaults.
type LLMRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	Model        string
}

// StreamingClient opens one streamed completion per call.
type StreamingClient interface {
	Stream(ctx context.Context, request LLMRequest) (stream.Source, error)
}

// PromptBuilder produces the four stage prompts.
type PromptBuilder interface {
	Select(task string) (string, error)
	Adapt(selectedModules string, task string) (string, error)
	Structure(adaptedModules string, task string) (string, error)
	Execute(reasoningStructure string, task string) (string, error)
}
