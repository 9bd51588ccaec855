package llm

import (
	"context"
	"strings"

	"github.com/temirov/self-discover/internal/pipeline"
	"github.com/temirov/self-discover/internal/stream"
)

// Adapter adapts pipeline.LLMRequest to the concrete client, filling model,
// temperature and token defaults.
type Adapter struct {
	Client        *Client
	DefaultModel  string
	DefaultTemp   float64
	DefaultTokens int
}

// Stream returns a nil Source, not a typed nil, when the request fails.
func (a Adapter) Stream(ctx context.Context, req pipeline.LLMRequest) (stream.Source, error) {
	chatStream, err := a.Client.StreamChat(ctx, a.chatRequest(req))
	if err != nil {
		return nil, err
	}
	return chatStream, nil
}

// Complete issues one non-streaming request with the adapter's defaults.
func (a Adapter) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	return a.Client.Complete(ctx, a.chatRequest(pipeline.LLMRequest{SystemPrompt: systemPrompt, UserPrompt: userPrompt}))
}

func (a Adapter) chatRequest(req pipeline.LLMRequest) ChatRequest {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = a.DefaultModel
	}
	return ChatRequest{
		Model:       model,
		System:      strings.TrimSpace(req.SystemPrompt),
		User:        req.UserPrompt,
		Temperature: chooseFloat(req.Temperature, a.DefaultTemp),
		MaxTokens:   chooseInt(req.MaxTokens, a.DefaultTokens),
	}
}

// ModerationAdapter exposes the moderation endpoint as a single-method checker.
type ModerationAdapter struct {
	Client *Client
	Model  string
}

func (m ModerationAdapter) Flagged(ctx context.Context, text string) (bool, error) {
	return m.Client.Moderate(ctx, m.Model, text)
}

// FactualityAdapter asks the model whether text is a factual question.
type FactualityAdapter struct {
	Client       *Client
	Model        string
	SystemPrompt string
}

// DefaultFactualitySystemPrompt asks for a bare 0/1 verdict.
const DefaultFactualitySystemPrompt = "Is the given text a factual question? If yes, return 1, otherwise return 0."

func (f FactualityAdapter) Factual(ctx context.Context, text string) (bool, error) {
	systemPrompt := f.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultFactualitySystemPrompt
	}
	digit, err := f.Client.ClassifyDigit(ctx, ChatRequest{Model: f.Model, System: systemPrompt, User: text})
	if err != nil {
		return false, err
	}
	return digit == 1, nil
}

func chooseInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

func chooseFloat(a, b float64) float64 {
	if a > 0 {
		return a
	}
	return b
}
