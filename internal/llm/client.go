// Package llm talks to an OpenAI-compatible chat-completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL points at Groq's OpenAI-compatible API.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	streamOperation        = "stream"
	receiveOperation       = "receive"
	completeOperation      = "complete"
	moderateOperation      = "moderate"
	missingAPIKeyMessage   = "api key is empty"
	noChoicesErrorMessage  = "completion returned no choices"
	noResultsErrorMessage  = "moderation returned no results"
	unsupportedModelFormat = "%w: %q (supported: %s)"
	digitParseErrorFormat  = "classification returned %q, want a single digit"
	zeroDigitToken         = "15"
	oneDigitToken          = "16"
	digitLogitBias         = 100
)

// DefaultModels is the enumerated set of models the demo was built around.
var DefaultModels = []string{"qwen-2.5-32b", "deepseek-r1-distill-llama-70b"}

// Config describes how to reach the completion endpoint.
type Config struct {
	BaseURL    string
	APIKey     string
	Models     []string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// ChatRequest is one system instruction plus one user prompt.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Client issues chat-completion and moderation requests. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	api    *openai.Client
	models []string
	logger *zap.Logger
}

func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New(missingAPIKeyMessage)
	}
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = strings.TrimRight(firstNonBlank(cfg.BaseURL, DefaultBaseURL), "/")
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	}

	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModels
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		models: slices.Clone(models),
		logger: logger,
	}, nil
}

// Models lists the supported model identifiers.
func (c *Client) Models() []string { return slices.Clone(c.models) }

// Supports reports whether model is in the enumerated set.
func (c *Client) Supports(model string) bool { return slices.Contains(c.models, model) }

func (c *Client) validateModel(model string) error {
	if c.Supports(model) {
		return nil
	}
	return fmt.Errorf(unsupportedModelFormat, ErrUnsupportedModel, model, strings.Join(c.models, ", "))
}

// StreamChat issues exactly one streaming request. The caller owns the
// returned stream and must Close it on every path.
func (c *Client) StreamChat(ctx context.Context, request ChatRequest) (*ChatStream, error) {
	if err := c.validateModel(request.Model); err != nil {
		return nil, err
	}
	payload := c.buildRequest(request)
	payload.Stream = true

	c.logger.Debug("opening completion stream",
		zap.String("model", request.Model),
		zap.Int("prompt_characters", len(request.User)),
	)
	completionStream, err := c.api.CreateChatCompletionStream(ctx, payload)
	if err != nil {
		return nil, newTransportError(streamOperation, err)
	}
	return &ChatStream{stream: completionStream}, nil
}

// Complete issues one non-streaming request and returns the first choice.
func (c *Client) Complete(ctx context.Context, request ChatRequest) (string, error) {
	if err := c.validateModel(request.Model); err != nil {
		return "", err
	}
	response, err := c.api.CreateChatCompletion(ctx, c.buildRequest(request))
	if err != nil {
		return "", newTransportError(completeOperation, err)
	}
	if len(response.Choices) == 0 {
		return "", newTransportError(completeOperation, errors.New(noChoicesErrorMessage))
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// Moderate reports whether the moderation endpoint flags text.
func (c *Client) Moderate(ctx context.Context, model string, text string) (bool, error) {
	response, err := c.api.Moderations(ctx, openai.ModerationRequest{Input: text, Model: model})
	if err != nil {
		return false, newTransportError(moderateOperation, err)
	}
	if len(response.Results) == 0 {
		return false, newTransportError(moderateOperation, errors.New(noResultsErrorMessage))
	}
	return response.Results[0].Flagged, nil
}

// ClassifyDigit asks for a single-token 0/1 answer. Sampling is pinned and
// the logits of the two digit tokens are boosted so the reply is one digit.
func (c *Client) ClassifyDigit(ctx context.Context, request ChatRequest) (int, error) {
	if err := c.validateModel(request.Model); err != nil {
		return 0, err
	}
	payload := c.buildRequest(request)
	seed := 0
	payload.MaxTokens = 1
	payload.Temperature = 0
	payload.Seed = &seed
	payload.LogitBias = map[string]int{zeroDigitToken: digitLogitBias, oneDigitToken: digitLogitBias}

	response, err := c.api.CreateChatCompletion(ctx, payload)
	if err != nil {
		return 0, newTransportError(completeOperation, err)
	}
	if len(response.Choices) == 0 {
		return 0, newTransportError(completeOperation, errors.New(noChoicesErrorMessage))
	}
	raw := strings.TrimSpace(response.Choices[0].Message.Content)
	digit, parseErr := strconv.Atoi(raw)
	if parseErr != nil || (digit != 0 && digit != 1) {
		return 0, fmt.Errorf(digitParseErrorFormat, raw)
	}
	return digit, nil
}

func (c *Client) buildRequest(request ChatRequest) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: request.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: request.System},
			{Role: openai.ChatMessageRoleUser, Content: request.User},
		},
		Temperature: float32(request.Temperature),
		MaxTokens:   request.MaxTokens,
	}
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
