package llm

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestStreamChatIntegration(t *testing.T) {
	apiKey := strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	if apiKey == "" {
		t.Skip("GROQ_API_KEY is not set")
	}

	model := strings.TrimSpace(os.Getenv("SELF_DISCOVER_INTEGRATION_MODEL"))
	if model == "" {
		model = DefaultModels[0]
	}

	client, err := NewClient(Config{
		BaseURL: strings.TrimSpace(os.Getenv("SELF_DISCOVER_API_ENDPOINT")),
		APIKey:  apiKey,
		Models:  []string{model},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	chatStream, err := client.StreamChat(ctx, ChatRequest{
		Model:     model,
		System:    "You respond with the single word pong.",
		User:      "ping",
		MaxTokens: 16,
	})
	if err != nil {
		t.Fatalf("StreamChat integration call failed: %v", err)
	}
	defer chatStream.Close()

	var builder strings.Builder
	for {
		delta, recvErr := chatStream.Recv()
		if recvErr != nil {
			break
		}
		builder.WriteString(delta)
	}
	if !strings.Contains(strings.ToLower(builder.String()), "pong") {
		t.Fatalf("expected response to mention pong, got %q", builder.String())
	}
}
