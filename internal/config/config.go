package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	emptyModelsErrorMessage                  = "config.models is empty"
	missingDefaultModelErrorMessage          = "no default model found (set models[].default: true)"
	blankModelIDErrorFormat                  = "models[%d].model_id is empty"
	duplicateModelNameErrorFormat            = "models[%d].name %q is duplicated"
	blankCatalogEntryErrorFormat             = "catalog[%d] is empty"
	unknownModelErrorFormat                  = "unknown model %q (available: %s)"
	rootConfigurationEmptyContentErrorFormat = "root configuration %s is empty"
	rootConfigurationUnmarshalErrorFormat    = "unmarshal root configuration %s: %w"

	defaultAPIEndpoint          = "https://api.groq.com/openai/v1"
	defaultAPIKeyEnv            = "GROQ_API_KEY"
	defaultLoggingLevel         = "info"
	defaultLoggingFormat        = "console"
	defaultTimeoutSeconds       = 120
	defaultPromptWarnCharacters = 32000
	defaultDiscoverSystemPrompt = "You are a world-class expert in reasoning."
	defaultTavilyAPIKeyEnv      = "TAVILY_API_KEY"
	defaultSearchDepth          = "basic"
	defaultSearchMaxResults     = 3
	defaultSearchMaxIterations  = 5
	defaultSearchConcurrency    = 3
	defaultSheetsRange          = "A1"
	defaultSheetsCredentialsEnv = "GOOGLE_SHEETS_CREDENTIALS"
	defaultServerAddress        = ":8501"
)

type Root struct {
	Common     Common     `yaml:"common"`
	Models     []Model    `yaml:"models"`
	Catalog    []string   `yaml:"catalog"`
	Chat       Chat       `yaml:"chat"`
	Discover   Discover   `yaml:"discover"`
	Search     Search     `yaml:"search"`
	Moderation Moderation `yaml:"moderation"`
	Logbook    Logbook    `yaml:"logbook"`
	Server     Server     `yaml:"server"`
}

type Common struct {
	API struct {
		Endpoint  string `yaml:"endpoint"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"api"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Defaults struct {
		TimeoutSeconds       int `yaml:"timeout_seconds"`
		PromptWarnCharacters int `yaml:"prompt_warn_characters"`
	} `yaml:"defaults"`
}

type Model struct {
	Name        string  `yaml:"name"`
	ModelID     string  `yaml:"model_id"`
	Default     bool    `yaml:"default"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Chat holds the prefilled prompts of the single-completion flow.
type Chat struct {
	SystemPrompt string `yaml:"system_prompt"`
	UserPrompt   string `yaml:"user_prompt"`
}

type Discover struct {
	SystemPrompt     string `yaml:"system_prompt"`
	Model            string `yaml:"model"`
	AllowEmptyStages bool   `yaml:"allow_empty_stages"`
}

type Search struct {
	TavilyAPIKeyEnv string `yaml:"tavily_api_key_env"`
	Endpoint        string `yaml:"endpoint"`
	Depth           string `yaml:"depth"`
	MaxResults      int    `yaml:"max_results"`
	MaxIterations   int    `yaml:"max_iterations"`
	Concurrency     int    `yaml:"concurrency"`
	Model           string `yaml:"model"`
	RequireFactual  bool   `yaml:"require_factual"`
}

type Moderation struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

type Logbook struct {
	Sheets struct {
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		Range           string `yaml:"range"`
		CredentialsEnv  string `yaml:"credentials_env"`
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"sheets"`
	File struct {
		Path string `yaml:"path"`
	} `yaml:"file"`
	LogFlaggedContent bool `yaml:"log_flagged_content"`
}

type Server struct {
	Address string `yaml:"address"`
}

// LoadRoot parses the provided configuration source, fills defaults and
// validates required fields.
func LoadRoot(source RootConfigurationSource) (Root, error) {
	if len(source.Content) == 0 {
		return Root{}, fmt.Errorf(rootConfigurationEmptyContentErrorFormat, source.Reference)
	}

	var rootConfiguration Root
	if err := yaml.Unmarshal(source.Content, &rootConfiguration); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationUnmarshalErrorFormat, source.Reference, err)
	}
	rootConfiguration.applyDefaults()
	if err := rootConfiguration.Validate(); err != nil {
		return Root{}, err
	}
	return rootConfiguration, nil
}

// Validate checks the invariants the commands rely on.
func (root Root) Validate() error {
	if len(root.Models) == 0 {
		return errors.New(emptyModelsErrorMessage)
	}
	seen := map[string]bool{}
	for index, modelConfiguration := range root.Models {
		if strings.TrimSpace(modelConfiguration.ModelID) == "" {
			return fmt.Errorf(blankModelIDErrorFormat, index)
		}
		if seen[modelConfiguration.Name] {
			return fmt.Errorf(duplicateModelNameErrorFormat, index, modelConfiguration.Name)
		}
		seen[modelConfiguration.Name] = true
	}
	if _, ok := root.DefaultModel(); !ok {
		return errors.New(missingDefaultModelErrorMessage)
	}
	for index, entry := range root.Catalog {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf(blankCatalogEntryErrorFormat, index)
		}
	}
	return nil
}

func (root *Root) applyDefaults() {
	if strings.TrimSpace(root.Common.API.Endpoint) == "" {
		root.Common.API.Endpoint = defaultAPIEndpoint
	}
	if strings.TrimSpace(root.Common.API.APIKeyEnv) == "" {
		root.Common.API.APIKeyEnv = defaultAPIKeyEnv
	}
	if strings.TrimSpace(root.Common.Logging.Level) == "" {
		root.Common.Logging.Level = defaultLoggingLevel
	}
	if strings.TrimSpace(root.Common.Logging.Format) == "" {
		root.Common.Logging.Format = defaultLoggingFormat
	}
	if root.Common.Defaults.TimeoutSeconds <= 0 {
		root.Common.Defaults.TimeoutSeconds = defaultTimeoutSeconds
	}
	if root.Common.Defaults.PromptWarnCharacters <= 0 {
		root.Common.Defaults.PromptWarnCharacters = defaultPromptWarnCharacters
	}
	for index := range root.Models {
		if strings.TrimSpace(root.Models[index].Name) == "" {
			root.Models[index].Name = root.Models[index].ModelID
		}
	}
	if strings.TrimSpace(root.Discover.SystemPrompt) == "" {
		root.Discover.SystemPrompt = defaultDiscoverSystemPrompt
	}
	if strings.TrimSpace(root.Search.TavilyAPIKeyEnv) == "" {
		root.Search.TavilyAPIKeyEnv = defaultTavilyAPIKeyEnv
	}
	if strings.TrimSpace(root.Search.Depth) == "" {
		root.Search.Depth = defaultSearchDepth
	}
	if root.Search.MaxResults <= 0 {
		root.Search.MaxResults = defaultSearchMaxResults
	}
	if root.Search.MaxIterations <= 0 {
		root.Search.MaxIterations = defaultSearchMaxIterations
	}
	if root.Search.Concurrency <= 0 {
		root.Search.Concurrency = defaultSearchConcurrency
	}
	if strings.TrimSpace(root.Logbook.Sheets.Range) == "" {
		root.Logbook.Sheets.Range = defaultSheetsRange
	}
	if strings.TrimSpace(root.Logbook.Sheets.CredentialsEnv) == "" {
		root.Logbook.Sheets.CredentialsEnv = defaultSheetsCredentialsEnv
	}
	if strings.TrimSpace(root.Server.Address) == "" {
		root.Server.Address = defaultServerAddress
	}
}

func (root Root) DefaultModel() (Model, bool) {
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Default {
			return modelConfiguration, true
		}
	}
	return Model{}, false
}

// FindModel matches by configured name first, then by model identifier.
func (root Root) FindModel(name string) (Model, bool) {
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Name == name {
			return modelConfiguration, true
		}
	}
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.ModelID == name {
			return modelConfiguration, true
		}
	}
	return Model{}, false
}

// ResolveModel returns the named model, or the default one when name is blank.
func (root Root) ResolveModel(name string) (Model, error) {
	if strings.TrimSpace(name) == "" {
		if modelConfiguration, ok := root.DefaultModel(); ok {
			return modelConfiguration, nil
		}
		return Model{}, errors.New(missingDefaultModelErrorMessage)
	}
	if modelConfiguration, ok := root.FindModel(name); ok {
		return modelConfiguration, nil
	}
	names := make([]string, 0, len(root.Models))
	for _, modelConfiguration := range root.Models {
		names = append(names, modelConfiguration.Name)
	}
	return Model{}, fmt.Errorf(unknownModelErrorFormat, name, strings.Join(names, ", "))
}

// ModelIDs lists the provider identifiers of every configured model; this is
// the enumerated set the completion client accepts.
func (root Root) ModelIDs() []string {
	identifiers := make([]string, 0, len(root.Models))
	for _, modelConfiguration := range root.Models {
		identifiers = append(identifiers, modelConfiguration.ModelID)
	}
	return identifiers
}

// StageTimeout bounds every single streamed completion.
func (root Root) StageTimeout() time.Duration {
	return time.Duration(root.Common.Defaults.TimeoutSeconds) * time.Second
}
