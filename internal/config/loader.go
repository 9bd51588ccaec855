package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/self-discover/internal/fsops"
)

const (
	// EmbeddedRootConfigurationReference identifies the embedded fallback configuration source.
	EmbeddedRootConfigurationReference = "embedded default configuration"

	namedConfigurationReadErrorFormat = "read %s configuration %s: %w"
	workingDirectoryErrorFormat       = "determine working directory: %w"
	configurationFileName             = "config.yaml"
	homeConfigurationDirectory        = ".self-discover"

	originExplicit    = "explicit"
	originEnvironment = "environment"
	originWorking     = "working directory"
	originHome        = "home directory"
)

//go:embed default_root_configuration.yaml
var embeddedRootConfigurationBytes []byte

// RootConfigurationSource holds the raw configuration data and its origin.
type RootConfigurationSource struct {
	Reference string
	Content   []byte
}

// RootConfigurationLoader resolves the configuration file in this order:
// the --config path, the path named by the environment, ./config.yaml,
// ~/.self-discover/config.yaml, then the embedded default.
type RootConfigurationLoader struct {
	files            fsops.FS
	workingDirectory string
	homeDirectory    string
	environmentPath  string
}

// NewRootConfigurationLoader reads candidates through files.
func NewRootConfigurationLoader(files fsops.FS, workingDirectory string, homeDirectory string) RootConfigurationLoader {
	return RootConfigurationLoader{files: files, workingDirectory: workingDirectory, homeDirectory: homeDirectory}
}

// NewDefaultRootConfigurationLoader uses the OS filesystem, the process
// working directory and the user's home directory.
func NewDefaultRootConfigurationLoader() (RootConfigurationLoader, error) {
	workingDirectory, err := os.Getwd()
	if err != nil {
		return RootConfigurationLoader{}, fmt.Errorf(workingDirectoryErrorFormat, err)
	}
	homeDirectory, homeErr := os.UserHomeDir()
	if homeErr != nil {
		homeDirectory = ""
	}
	return NewRootConfigurationLoader(fsops.NewOS(), workingDirectory, homeDirectory), nil
}

// WithEnvironmentPath returns a loader that tries path right after the
// explicit one. A blank path adds no candidate.
func (loader RootConfigurationLoader) WithEnvironmentPath(path string) RootConfigurationLoader {
	loader.environmentPath = strings.TrimSpace(path)
	return loader
}

type configurationCandidate struct {
	origin string
	path   string
	named  bool
}

// Load returns the first readable candidate. A missing file is skipped; any
// other read failure of a named path (explicit or environment) is an error.
func (loader RootConfigurationLoader) Load(explicitPath string) (RootConfigurationSource, error) {
	for _, candidate := range loader.candidates(strings.TrimSpace(explicitPath)) {
		content, readErr := loader.files.ReadFile(candidate.path)
		if readErr == nil {
			return RootConfigurationSource{Reference: candidate.path, Content: content}, nil
		}
		if candidate.named && !errors.Is(readErr, fs.ErrNotExist) {
			return RootConfigurationSource{}, fmt.Errorf(namedConfigurationReadErrorFormat, candidate.origin, candidate.path, readErr)
		}
	}
	return RootConfigurationSource{Reference: EmbeddedRootConfigurationReference, Content: embeddedRootConfigurationBytes}, nil
}

func (loader RootConfigurationLoader) candidates(explicitPath string) []configurationCandidate {
	var candidates []configurationCandidate
	if explicitPath != "" {
		candidates = append(candidates, configurationCandidate{origin: originExplicit, path: explicitPath, named: true})
	}
	if loader.environmentPath != "" {
		candidates = append(candidates, configurationCandidate{origin: originEnvironment, path: loader.environmentPath, named: true})
	}
	if loader.workingDirectory != "" {
		candidates = append(candidates, configurationCandidate{
			origin: originWorking,
			path:   filepath.Join(loader.workingDirectory, configurationFileName),
		})
	}
	if loader.homeDirectory != "" {
		candidates = append(candidates, configurationCandidate{
			origin: originHome,
			path:   filepath.Join(loader.homeDirectory, homeConfigurationDirectory, configurationFileName),
		})
	}
	return candidates
}
