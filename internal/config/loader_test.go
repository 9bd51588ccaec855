package config_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/self-discover/internal/config"
	"github.com/temirov/self-discover/internal/fsops"
)

const (
	workingDirectory       = "/work"
	homeDirectory          = "/home/user"
	explicitPath           = "/etc/self-discover/explicit.yaml"
	environmentPath        = "/srv/self-discover/environment.yaml"
	workingPath            = "/work/config.yaml"
	homePath               = "/home/user/.self-discover/config.yaml"
	configurationTemplate  = "common:\n  logging:\n    level: %s\nmodels:\n  - name: %s\n    model_id: %s-id\n    default: true\n"
	embeddedDefaultModelID = "qwen-2.5-32b"
)

func writeMemConfiguration(t *testing.T, files fsops.Mem, path string, modelName string) {
	t.Helper()
	content := fmt.Sprintf(configurationTemplate, "debug", modelName, modelName)
	if err := fsops.NewOps(files).WriteFile(path, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestRootConfigurationLoader_SearchOrder(t *testing.T) {
	testCases := []struct {
		name              string
		present           []string
		explicit          string
		environment       string
		expectedReference string
		expectedModel     string
	}{
		{
			name:              "explicit wins over every other location",
			present:           []string{explicitPath, environmentPath, workingPath, homePath},
			explicit:          explicitPath,
			environment:       environmentPath,
			expectedReference: explicitPath,
			expectedModel:     "explicit",
		},
		{
			name:              "environment path wins over the working directory",
			present:           []string{environmentPath, workingPath, homePath},
			environment:       environmentPath,
			expectedReference: environmentPath,
			expectedModel:     "environment",
		},
		{
			name:              "missing explicit file falls back to the environment path",
			present:           []string{environmentPath, workingPath},
			explicit:          "/missing.yaml",
			environment:       environmentPath,
			expectedReference: environmentPath,
			expectedModel:     "environment",
		},
		{
			name:              "missing environment file falls back to the working directory",
			present:           []string{workingPath, homePath},
			environment:       "/missing.yaml",
			expectedReference: workingPath,
			expectedModel:     "working",
		},
		{
			name:              "home directory used when nothing else exists",
			present:           []string{homePath},
			expectedReference: homePath,
			expectedModel:     "home",
		},
		{
			name:              "embedded default when no file exists",
			expectedReference: config.EmbeddedRootConfigurationReference,
			expectedModel:     "qwen",
		},
	}

	modelNames := map[string]string{
		explicitPath:    "explicit",
		environmentPath: "environment",
		workingPath:     "working",
		homePath:        "home",
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			files := fsops.NewMem()
			for _, path := range testCase.present {
				writeMemConfiguration(t, files, path, modelNames[path])
			}

			loader := config.NewRootConfigurationLoader(files, workingDirectory, homeDirectory).
				WithEnvironmentPath(testCase.environment)
			source, err := loader.Load(testCase.explicit)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if source.Reference != testCase.expectedReference {
				t.Fatalf("reference = %s, want %s", source.Reference, testCase.expectedReference)
			}

			root, err := config.LoadRoot(source)
			if err != nil {
				t.Fatalf("LoadRoot: %v", err)
			}
			defaultModel, _ := root.DefaultModel()
			if defaultModel.Name != testCase.expectedModel {
				t.Fatalf("default model = %s, want %s", defaultModel.Name, testCase.expectedModel)
			}
		})
	}
}

type failingFS struct {
	fsops.Mem
	failPath string
}

var errDiskFailure = errors.New("disk failure")

func (f failingFS) ReadFile(name string) ([]byte, error) {
	if filepath.Clean(name) == f.failPath {
		return nil, errDiskFailure
	}
	return f.Mem.ReadFile(name)
}

func TestRootConfigurationLoader_NamedPathReadFailure(t *testing.T) {
	testCases := []struct {
		name        string
		explicit    string
		environment string
		origin      string
	}{
		{name: "explicit", explicit: explicitPath, origin: "explicit"},
		{name: "environment", environment: environmentPath, origin: "environment"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			files := fsops.NewMem()
			writeMemConfiguration(t, files, workingPath, "working")
			failing := failingFS{Mem: files, failPath: firstNonEmpty(testCase.explicit, testCase.environment)}

			loader := config.NewRootConfigurationLoader(failing, workingDirectory, homeDirectory).
				WithEnvironmentPath(testCase.environment)
			_, err := loader.Load(testCase.explicit)
			if !errors.Is(err, errDiskFailure) {
				t.Fatalf("expected the read failure, got %v", err)
			}
			if !strings.Contains(err.Error(), testCase.origin) {
				t.Fatalf("error %q does not name the %s origin", err, testCase.origin)
			}
		})
	}
}

func TestRootConfigurationLoader_UnnamedReadFailureIsSkipped(t *testing.T) {
	files := fsops.NewMem()
	writeMemConfiguration(t, files, homePath, "home")
	failing := failingFS{Mem: files, failPath: workingPath}

	source, err := config.NewRootConfigurationLoader(failing, workingDirectory, homeDirectory).Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if source.Reference != homePath {
		t.Fatalf("reference = %s, want %s", source.Reference, homePath)
	}
}

func TestNewDefaultRootConfigurationLoader_ReadsOSFiles(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "custom.yaml")
	content := fmt.Sprintf(configurationTemplate, "warn", "disk", "disk")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader, err := config.NewDefaultRootConfigurationLoader()
	if err != nil {
		t.Fatalf("NewDefaultRootConfigurationLoader: %v", err)
	}
	source, err := loader.WithEnvironmentPath(path).Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if source.Reference != path {
		t.Fatalf("reference = %s, want %s", source.Reference, path)
	}
}

func TestEmbeddedConfigurationUsesGroqModels(t *testing.T) {
	source, err := config.NewRootConfigurationLoader(fsops.NewMem(), "", "").Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.Contains(string(source.Content), embeddedDefaultModelID) {
		t.Fatalf("embedded configuration does not mention %s", embeddedDefaultModelID)
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
