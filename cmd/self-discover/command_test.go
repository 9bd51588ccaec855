package selfdiscover_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	selfdiscover "github.com/temirov/self-discover/cmd/self-discover"
	"github.com/temirov/self-discover/internal/config"
	"github.com/temirov/self-discover/internal/prompts"
)

const (
	apiKeyEnvironmentVariable    = "SELF_DISCOVER_TEST_API_KEY"
	tavilyKeyEnvironmentVariable = "SELF_DISCOVER_TEST_TAVILY_KEY"
	chatCompletionPath           = "/chat/completions"
	moderationPath               = "/moderations"
	primaryModelName             = "primary"
	primaryModelIdentifier       = "primary-model"
	secondaryModelName           = "secondary"
	secondaryModelIdentifier     = "secondary-model"
	loggingLevelError            = "error"
)

type completionServer struct {
	mu       sync.Mutex
	models   []string
	replies  [][]string
	flagged  bool
	requests int
}

func (s *completionServer) handler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case moderationPath:
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"id":"mod","model":"moderation","results":[{"flagged":%t}]}`, s.flagged)
			return
		case chatCompletionPath:
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}

		payload := struct {
			Model string `json:"model"`
		}{}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode request: %v", err)
		}

		s.mu.Lock()
		index := s.requests
		s.requests++
		s.models = append(s.models, payload.Model)
		deltas := []string{"empty reply"}
		if index < len(s.replies) {
			deltas = s.replies[index]
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range deltas {
			chunk := map[string]any{
				"id":      "chunk",
				"object":  "chat.completion.chunk",
				"model":   payload.Model,
				"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": delta}}},
			}
			encoded, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", encoded)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func (s *completionServer) requestedModels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.models...)
}

type testConfigBuilder struct {
	endpoint         string
	logbookPath      string
	allowEmptyStages bool
}

func (builder testConfigBuilder) writeConfig(t *testing.T) string {
	t.Helper()

	rootConfiguration := config.Root{}
	rootConfiguration.Common.API.Endpoint = builder.endpoint
	rootConfiguration.Common.API.APIKeyEnv = apiKeyEnvironmentVariable
	rootConfiguration.Common.Logging.Level = loggingLevelError
	rootConfiguration.Common.Defaults.TimeoutSeconds = 5
	rootConfiguration.Models = []config.Model{
		{Name: primaryModelName, ModelID: primaryModelIdentifier, Default: true, Temperature: 0.6, MaxTokens: 256},
		{Name: secondaryModelName, ModelID: secondaryModelIdentifier},
	}
	rootConfiguration.Chat.SystemPrompt = "You are a helpful assistant."
	rootConfiguration.Chat.UserPrompt = "Explain the importance of fast language models"
	rootConfiguration.Search.TavilyAPIKeyEnv = tavilyKeyEnvironmentVariable
	rootConfiguration.Search.Model = primaryModelName
	rootConfiguration.Moderation.Enabled = true
	rootConfiguration.Logbook.File.Path = builder.logbookPath
	rootConfiguration.Discover.AllowEmptyStages = builder.allowEmptyStages

	configData, marshalErr := yaml.Marshal(rootConfiguration)
	if marshalErr != nil {
		t.Fatalf("marshal config: %v", marshalErr)
	}
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if writeErr := os.WriteFile(configPath, configData, 0o600); writeErr != nil {
		t.Fatalf("write config: %v", writeErr)
	}
	return configPath
}

func setupCompletionServer(t *testing.T, backend *completionServer) string {
	t.Helper()
	server := httptest.NewServer(backend.handler(t))
	t.Cleanup(server.Close)
	t.Setenv(apiKeyEnvironmentVariable, "test-key")
	t.Setenv("SELF_DISCOVER_MODEL", "")
	t.Setenv("SELF_DISCOVER_API_ENDPOINT", "")
	return server.URL
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	command := selfdiscover.NewRootCommand()
	command.SetOut(&stdout)
	command.SetErr(&stderr)
	command.SetArgs(args)
	err := command.Execute()
	return stdout.String(), stderr.String(), err
}

func TestModelsListsDefaultMarker(t *testing.T) {
	configPath := testConfigBuilder{endpoint: "http://127.0.0.1:1"}.writeConfig(t)

	stdout, _, err := execute(t, "models", "--config", configPath)
	if err != nil {
		t.Fatalf("execute models: %v", err)
	}
	if !strings.Contains(stdout, "primary\t(primary-model, temperature=0.6, max_tokens=256, default)") {
		t.Fatalf("expected default model line; got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "secondary\t(secondary-model, temperature=-, max_tokens=-)") {
		t.Fatalf("expected secondary model line; got:\n%s", stdout)
	}
}

func TestEnvironmentNamesConfiguration(t *testing.T) {
	configPath := testConfigBuilder{endpoint: "http://127.0.0.1:1"}.writeConfig(t)
	t.Setenv("SELF_DISCOVER_CONFIG", configPath)
	t.Setenv("SELF_DISCOVER_MODEL", "")

	stdout, _, err := execute(t, "models")
	if err != nil {
		t.Fatalf("execute models: %v", err)
	}
	if !strings.Contains(stdout, primaryModelIdentifier) {
		t.Fatalf("expected models from %s; got:\n%s", configPath, stdout)
	}
}

func TestModulesListsCatalog(t *testing.T) {
	configPath := testConfigBuilder{endpoint: "http://127.0.0.1:1"}.writeConfig(t)

	stdout, _, err := execute(t, "modules", "--config", configPath)
	if err != nil {
		t.Fatalf("execute modules: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != len(prompts.ReasoningModules) {
		t.Fatalf("expected %d modules, got %d", len(prompts.ReasoningModules), len(lines))
	}
	if !strings.Contains(lines[0], prompts.ReasoningModules[0]) {
		t.Fatalf("first line %q does not carry the first module", lines[0])
	}
}

func TestChatStreamsCompletion(t *testing.T) {
	backend := &completionServer{replies: [][]string{{"Fast ", "models ", "matter."}}}
	endpoint := setupCompletionServer(t, backend)
	configPath := testConfigBuilder{endpoint: endpoint}.writeConfig(t)

	stdout, _, err := execute(t, "chat", "--config", configPath, "--no-spinner")
	if err != nil {
		t.Fatalf("execute chat: %v", err)
	}
	if !strings.Contains(stdout, "Fast models matter.") {
		t.Fatalf("expected streamed answer; got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Completed in") {
		t.Fatalf("expected elapsed time; got:\n%s", stdout)
	}
	if models := backend.requestedModels(); len(models) != 1 || models[0] != primaryModelIdentifier {
		t.Fatalf("expected one request for %s, got %v", primaryModelIdentifier, models)
	}
}

func TestChatEnvironmentSelectsModel(t *testing.T) {
	backend := &completionServer{replies: [][]string{{"ok"}}}
	endpoint := setupCompletionServer(t, backend)
	configPath := testConfigBuilder{endpoint: endpoint}.writeConfig(t)
	t.Setenv("SELF_DISCOVER_MODEL", secondaryModelName)

	if _, _, err := execute(t, "chat", "--config", configPath, "--no-spinner", "hello"); err != nil {
		t.Fatalf("execute chat: %v", err)
	}
	if models := backend.requestedModels(); len(models) != 1 || models[0] != secondaryModelIdentifier {
		t.Fatalf("expected one request for %s, got %v", secondaryModelIdentifier, models)
	}
}

func TestChatRejectsUnknownModel(t *testing.T) {
	backend := &completionServer{}
	endpoint := setupCompletionServer(t, backend)
	configPath := testConfigBuilder{endpoint: endpoint}.writeConfig(t)

	_, _, err := execute(t, "chat", "--config", configPath, "--no-spinner", "--model", "gpt-unknown", "hello")
	if err == nil || !strings.Contains(err.Error(), "unknown model") {
		t.Fatalf("expected unknown model error, got %v", err)
	}
	if len(backend.requestedModels()) != 0 {
		t.Fatalf("expected no request for an unknown model")
	}
}

func TestChatRequiresAPIKey(t *testing.T) {
	configPath := testConfigBuilder{endpoint: "http://127.0.0.1:1"}.writeConfig(t)
	t.Setenv(apiKeyEnvironmentVariable, "")

	_, _, err := execute(t, "chat", "--config", configPath, "--no-spinner", "hello")
	if err == nil || !strings.Contains(err.Error(), apiKeyEnvironmentVariable) {
		t.Fatalf("expected missing key error naming %s, got %v", apiKeyEnvironmentVariable, err)
	}
}

func TestDiscoverRunsStagesAndWritesTranscript(t *testing.T) {
	backend := &completionServer{replies: [][]string{
		{"Critical ", "Thinking"},
		{"Check the arithmetic"},
		{`{"step 1": ""}`},
		{"The answer is 4."},
	}}
	endpoint := setupCompletionServer(t, backend)
	configPath := testConfigBuilder{endpoint: endpoint}.writeConfig(t)
	transcriptPath := filepath.Join(t.TempDir(), "runs", "transcript.md")

	stdout, _, err := execute(t, "discover", "--config", configPath, "--output", transcriptPath, "What", "is", "2+2?")
	if err != nil {
		t.Fatalf("execute discover: %v\nstdout:\n%s", err, stdout)
	}
	for _, expected := range []string{
		"Step 1: Select relevant reasoning modules for the task",
		"Critical Thinking",
		"The answer is 4.",
		"Transcript written to",
	} {
		if !strings.Contains(stdout, expected) {
			t.Fatalf("expected %q in output; got:\n%s", expected, stdout)
		}
	}
	if models := backend.requestedModels(); len(models) != 4 {
		t.Fatalf("expected four stage requests, got %d", len(models))
	}

	transcript, readErr := os.ReadFile(transcriptPath)
	if readErr != nil {
		t.Fatalf("read transcript: %v", readErr)
	}
	if !strings.Contains(string(transcript), "What is 2+2?") || !strings.Contains(string(transcript), "The answer is 4.") {
		t.Fatalf("transcript misses task or answer:\n%s", transcript)
	}
}

func TestDiscoverFailsOnEmptyStage(t *testing.T) {
	backend := &completionServer{replies: [][]string{{"Critical Thinking"}, {}}}
	endpoint := setupCompletionServer(t, backend)
	configPath := testConfigBuilder{endpoint: endpoint}.writeConfig(t)

	_, _, err := execute(t, "discover", "--config", configPath, "task")
	if err == nil {
		t.Fatalf("expected the run to fail after an empty stage")
	}
	if models := backend.requestedModels(); len(models) != 2 {
		t.Fatalf("expected the run to stop after two requests, got %d", len(models))
	}
}

func TestDiscoverContinuesPastEmptyStageWhenAllowed(t *testing.T) {
	backend := &completionServer{replies: [][]string{{}, {"adapted"}, {"structure"}, {"The answer is 4."}}}
	endpoint := setupCompletionServer(t, backend)
	configPath := testConfigBuilder{endpoint: endpoint, allowEmptyStages: true}.writeConfig(t)

	stdout, _, err := execute(t, "discover", "--config", configPath, "What", "is", "2+2?")
	if err != nil {
		t.Fatalf("execute discover: %v", err)
	}
	if !strings.Contains(stdout, "The answer is 4.") {
		t.Fatalf("expected the final answer; got:\n%s", stdout)
	}
	if models := backend.requestedModels(); len(models) != 4 {
		t.Fatalf("expected four stage requests, got %d", len(models))
	}
}

func TestSearchRecordsFlaggedQuery(t *testing.T) {
	backend := &completionServer{flagged: true}
	endpoint := setupCompletionServer(t, backend)
	t.Setenv(tavilyKeyEnvironmentVariable, "tavily-key")
	logbookPath := filepath.Join(t.TempDir(), "logbook.jsonl")
	configPath := testConfigBuilder{endpoint: endpoint, logbookPath: logbookPath}.writeConfig(t)

	_, stderr, err := execute(t, "search", "--config", configPath, "--no-spinner", "something", "awful")
	if err != nil {
		t.Fatalf("execute search: %v", err)
	}
	if !strings.Contains(stderr, "✗ flagged by moderation") {
		t.Fatalf("expected the failed check to be reported; got:\n%s", stderr)
	}
	if !strings.Contains(stderr, "Please try another one.") {
		t.Fatalf("expected a flagged warning; got:\n%s", stderr)
	}
	if len(backend.requestedModels()) != 0 {
		t.Fatalf("expected no completion for a flagged query")
	}

	logbook, readErr := os.ReadFile(logbookPath)
	if readErr != nil {
		t.Fatalf("read logbook: %v", readErr)
	}
	entry := struct {
		Prompt    string `json:"prompt"`
		Generated bool   `json:"generated"`
		Answer    string `json:"answer"`
	}{}
	if decodeErr := json.Unmarshal(bytes.TrimSpace(logbook), &entry); decodeErr != nil {
		t.Fatalf("decode logbook: %v", decodeErr)
	}
	if entry.Generated || entry.Answer != "nil" || entry.Prompt != "[redacted]" {
		t.Fatalf("unexpected logbook entry %+v", entry)
	}
}

func TestSearchRequiresTavilyKey(t *testing.T) {
	backend := &completionServer{}
	endpoint := setupCompletionServer(t, backend)
	t.Setenv(tavilyKeyEnvironmentVariable, "")
	configPath := testConfigBuilder{endpoint: endpoint}.writeConfig(t)

	_, _, err := execute(t, "search", "--config", configPath, "--no-spinner", "question")
	if err == nil || !strings.Contains(err.Error(), tavilyKeyEnvironmentVariable) {
		t.Fatalf("expected missing key error naming %s, got %v", tavilyKeyEnvironmentVariable, err)
	}
}
