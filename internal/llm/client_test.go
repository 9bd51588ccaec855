package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/temirov/self-discover/internal/llm"
	"github.com/temirov/self-discover/internal/stream"
)

const testModel = "qwen-2.5-32b"

func streamingHandler(t *testing.T, deltas []string, captured *map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			payload := map[string]any{}
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Errorf("decode request: %v", err)
			}
			*captured = payload
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range deltas {
			writeChunk(w, delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func writeChunk(w http.ResponseWriter, delta string) {
	chunk := map[string]any{
		"id":      "chunk",
		"object":  "chat.completion.chunk",
		"model":   testModel,
		"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": delta}}},
	}
	encoded, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", encoded)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func newTestClient(t *testing.T, serverURL string) *llm.Client {
	t.Helper()
	client, err := llm.NewClient(llm.Config{BaseURL: serverURL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func drain(t *testing.T, chatStream *llm.ChatStream) ([]string, error) {
	t.Helper()
	var deltas []string
	for {
		delta, err := chatStream.Recv()
		if errors.Is(err, io.EOF) {
			return deltas, nil
		}
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, delta)
	}
}

func TestStreamChatYieldsDeltasInOrder(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(streamingHandler(t, []string{"Hel", "lo", "", "!"}, &captured))
	defer server.Close()

	client := newTestClient(t, server.URL)
	chatStream, err := client.StreamChat(context.Background(), llm.ChatRequest{
		Model:       testModel,
		System:      "You are a world-class expert in reasoning.",
		User:        "Say hello",
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	defer chatStream.Close()

	deltas, err := drain(t, chatStream)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	want := []string{"Hel", "lo", "", "!"}
	if strings.Join(deltas, "|") != strings.Join(want, "|") {
		t.Fatalf("deltas = %q, want %q", deltas, want)
	}

	if captured["stream"] != true {
		t.Fatalf("expected stream=true, got %v", captured["stream"])
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	second, _ := messages[1].(map[string]any)
	if first["role"] != "system" || second["role"] != "user" || second["content"] != "Say hello" {
		t.Fatalf("unexpected messages %v", messages)
	}
}

func TestStreamChatRejectsUnsupportedModelWithoutRequest(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.StreamChat(context.Background(), llm.ChatRequest{Model: "gpt-unknown", User: "hi"})
	if !errors.Is(err, llm.ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
	if requests.Load() != 0 {
		t.Fatalf("expected no request, got %d", requests.Load())
	}
}

func TestStreamChatReportsTransportErrorOnFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.StreamChat(context.Background(), llm.ChatRequest{Model: testModel, User: "hi"})
	var transportErr *llm.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if transportErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", transportErr.StatusCode, http.StatusUnauthorized)
	}
}

func TestStreamChatReportsTransportErrorOnBrokenStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "par")
		writeChunk(w, "tial")
		conn, buffered, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		_ = buffered.Flush()
		_ = conn.Close()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	chatStream, err := client.StreamChat(context.Background(), llm.ChatRequest{Model: testModel, User: "hi"})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	text, err := stream.Accumulate(context.Background(), chatStream, "answer", stream.Discard)
	var transportErr *llm.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if transportErr.Op != "receive" {
		t.Fatalf("op = %q, want receive", transportErr.Op)
	}
	if text != "partial" {
		t.Fatalf("partial text = %q, want %q", text, "partial")
	}
}

func TestChatStreamCloseReleasesConnection(t *testing.T) {
	released := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "Hel")
		<-r.Context().Done()
		close(released)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	chatStream, err := client.StreamChat(context.Background(), llm.ChatRequest{Model: testModel, User: "hi"})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	delta, err := chatStream.Recv()
	if err != nil || delta != "Hel" {
		t.Fatalf("first delta = %q, %v", delta, err)
	}
	if err := chatStream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("server still holds the connection after Close")
	}
}

func TestStreamChatDoesNotRetry(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if _, err := client.StreamChat(context.Background(), llm.ChatRequest{Model: testModel, User: "hi"}); err == nil {
		t.Fatal("expected error")
	}
	if requests.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", requests.Load())
	}
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  answer  "}}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	text, err := client.Complete(context.Background(), llm.ChatRequest{Model: testModel, User: "question"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "answer" {
		t.Fatalf("text = %q", text)
	}
}

func TestClassifyDigitPinsSampling(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"1"}}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	digit, err := client.ClassifyDigit(context.Background(), llm.ChatRequest{Model: testModel, User: "Is water wet?"})
	if err != nil {
		t.Fatalf("ClassifyDigit: %v", err)
	}
	if digit != 1 {
		t.Fatalf("digit = %d", digit)
	}
	if captured["max_tokens"] != float64(1) {
		t.Fatalf("max_tokens = %v", captured["max_tokens"])
	}
	bias, _ := captured["logit_bias"].(map[string]any)
	if bias["15"] != float64(100) || bias["16"] != float64(100) {
		t.Fatalf("logit_bias = %v", captured["logit_bias"])
	}
}

func TestModerateReportsFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moderations" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"m","model":"omni-moderation-latest","results":[{"flagged":true}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	flagged, err := client.Moderate(context.Background(), "", "something")
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if !flagged {
		t.Fatal("expected flagged")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := llm.NewClient(llm.Config{APIKey: "  "}); err == nil {
		t.Fatal("expected error for blank key")
	}
}
