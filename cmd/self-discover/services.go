package selfdiscover

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/temirov/self-discover/internal/config"
	"github.com/temirov/self-discover/internal/fsops"
	"github.com/temirov/self-discover/internal/llm"
	"github.com/temirov/self-discover/internal/logbook"
	"github.com/temirov/self-discover/internal/moderation"
	"github.com/temirov/self-discover/internal/pipeline"
	"github.com/temirov/self-discover/internal/prompts"
	"github.com/temirov/self-discover/internal/search"
)

const (
	credentialsReadErrorFormat  = "read sheets credentials %s: %w"
	sheetsRecorderErrorFormat   = "create sheets recorder: %w"
	completionClientErrorFormat = "create completion client: %w"
)

// services holds what every command builds from one loaded configuration.
type services struct {
	root        config.Root
	environment *viper.Viper
	logger      *zap.Logger
	files       fsops.FS
}

func newServices(options *rootCommandOptions) (services, error) {
	rootConfiguration, err := loadCommandConfiguration(options)
	if err != nil {
		return services{}, err
	}
	logger, err := newLogger(rootConfiguration)
	if err != nil {
		return services{}, err
	}
	return services{root: rootConfiguration, environment: newEnvironment(), logger: logger, files: fsops.NewOS()}, nil
}

func (s services) close() { _ = s.logger.Sync() }

func (s services) completionClient() (*llm.Client, error) {
	apiKeyEnv := s.root.Common.API.APIKeyEnv
	apiKey := lookupSecret(s.environment, apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf(missingAPIKeyErrorFormat, apiKeyEnv)
	}
	client, err := llm.NewClient(llm.Config{
		BaseURL: s.root.Common.API.Endpoint,
		APIKey:  apiKey,
		Models:  s.root.ModelIDs(),
		Logger:  s.logger.Named("llm"),
	})
	if err != nil {
		return nil, fmt.Errorf(completionClientErrorFormat, err)
	}
	return client, nil
}

func adapterFor(client *llm.Client, modelConfiguration config.Model) llm.Adapter {
	return llm.Adapter{
		Client:        client,
		DefaultModel:  modelConfiguration.ModelID,
		DefaultTemp:   modelConfiguration.Temperature,
		DefaultTokens: modelConfiguration.MaxTokens,
	}
}

// discoverRunner builds a runner for modelConfiguration. Sink is left for the
// caller to attach.
func (s services) discoverRunner(client pipeline.StreamingClient, modelConfiguration config.Model) pipeline.Runner {
	builder := prompts.NewBuilder(s.root.Catalog)
	builder.AllowBlankPrior = s.root.Discover.AllowEmptyStages
	return pipeline.Runner{
		Client:  client,
		Prompts: builder,
		Options: pipeline.RunOptions{
			Model:                modelConfiguration.ModelID,
			SystemPrompt:         s.root.Discover.SystemPrompt,
			Temperature:          modelConfiguration.Temperature,
			MaxTokens:            modelConfiguration.MaxTokens,
			Timeout:              s.root.StageTimeout(),
			PromptWarnCharacters: s.root.Common.Defaults.PromptWarnCharacters,
		},
		Logger: s.logger.Named("pipeline"),
	}
}

// searchService wires the moderated search agent. Agent.Sink is left for the
// caller to attach.
func (s services) searchService(ctx context.Context, client *llm.Client) (search.Service, error) {
	tavilyKeyEnv := s.root.Search.TavilyAPIKeyEnv
	tavilyKey := lookupSecret(s.environment, tavilyKeyEnv)
	if tavilyKey == "" {
		return search.Service{}, fmt.Errorf(missingTavilyKeyErrorFormat, tavilyKeyEnv)
	}
	searchModel, err := s.root.ResolveModel(s.root.Search.Model)
	if err != nil {
		return search.Service{}, err
	}

	tavily := search.NewTavily(tavilyKey, s.root.Search.Depth, s.root.Search.MaxResults, nil)
	if endpoint := strings.TrimSpace(s.root.Search.Endpoint); endpoint != "" {
		tavily.Endpoint = endpoint
	}

	recorder, err := s.recorder(ctx)
	if err != nil {
		return search.Service{}, err
	}

	return search.Service{
		Gate: s.gate(client, searchModel),
		Agent: search.Agent{
			LLM:           adapterFor(client, searchModel),
			Searcher:      tavily,
			MaxIterations: s.root.Search.MaxIterations,
			Concurrency:   s.root.Search.Concurrency,
			Logger:        s.logger.Named("search"),
		},
		Recorder: recorder,
		Logger:   s.logger.Named("search"),
	}, nil
}

func (s services) gate(client *llm.Client, searchModel config.Model) moderation.Gate {
	gate := moderation.Gate{Logger: s.logger.Named("moderation")}
	if s.root.Moderation.Enabled {
		gate.Moderator = llm.ModerationAdapter{Client: client, Model: s.root.Moderation.Model}
	}
	if s.root.Search.RequireFactual {
		gate.Factuality = llm.FactualityAdapter{Client: client, Model: searchModel.ModelID}
	}
	return gate
}

// recorder combines the configured logbooks. With none configured the
// interactions are not recorded.
func (s services) recorder(ctx context.Context) (logbook.Recorder, error) {
	var recorders logbook.Multi

	sheetsConfiguration := s.root.Logbook.Sheets
	if spreadsheetID := strings.TrimSpace(sheetsConfiguration.SpreadsheetID); spreadsheetID != "" {
		credentials, err := s.sheetsCredentials()
		if err != nil {
			return nil, err
		}
		sheetsRecorder, err := logbook.NewSheetsRecorder(ctx, credentials, spreadsheetID, sheetsConfiguration.Range)
		if err != nil {
			return nil, fmt.Errorf(sheetsRecorderErrorFormat, err)
		}
		recorders = append(recorders, sheetsRecorder)
	}
	if path := strings.TrimSpace(s.root.Logbook.File.Path); path != "" {
		recorders = append(recorders, logbook.NewFileRecorder(s.files, path))
	}

	if len(recorders) == 0 {
		return logbook.Nop{}, nil
	}
	return logbook.Redacting{Next: recorders, LogFlaggedContent: s.root.Logbook.LogFlaggedContent}, nil
}

func (s services) sheetsCredentials() ([]byte, error) {
	if path := strings.TrimSpace(s.root.Logbook.Sheets.CredentialsFile); path != "" {
		content, err := s.files.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf(credentialsReadErrorFormat, path, err)
		}
		return content, nil
	}
	if credentials := lookupSecret(s.environment, s.root.Logbook.Sheets.CredentialsEnv); credentials != "" {
		return []byte(credentials), nil
	}
	return nil, nil
}
