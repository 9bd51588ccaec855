package selfdiscover

import (
	"fmt"
	"strings"

	"github.com/temirov/self-discover/internal/config"
)

func loadRootConfiguration(configurationPath string) (config.Root, error) {
	configurationLoader, loaderErr := config.NewDefaultRootConfigurationLoader()
	if loaderErr != nil {
		return config.Root{}, fmt.Errorf(configurationLoaderInitializationErrorFormat, loaderErr)
	}
	environment := newEnvironment()
	configurationSource, sourceErr := configurationLoader.
		WithEnvironmentPath(environment.GetString(configPathKey)).
		Load(configurationPath)
	if sourceErr != nil {
		return config.Root{}, fmt.Errorf(configurationSourceResolutionErrorFormat, sourceErr)
	}
	rootConfiguration, loadErr := config.LoadRoot(configurationSource)
	if loadErr != nil {
		return config.Root{}, fmt.Errorf(rootConfigurationLoadErrorFormat, configurationSource.Reference, loadErr)
	}
	if overrideErr := applyEnvironmentOverrides(&rootConfiguration, environment); overrideErr != nil {
		return config.Root{}, fmt.Errorf(environmentOverrideErrorFormat, overrideErr)
	}
	return rootConfiguration, nil
}

// loadCommandConfiguration loads the configuration and applies the persistent
// flags, which win over both the file and the environment.
func loadCommandConfiguration(options *rootCommandOptions) (config.Root, error) {
	rootConfiguration, err := loadRootConfiguration(options.configPath)
	if err != nil {
		return config.Root{}, err
	}
	if level := strings.TrimSpace(options.logLevel); level != "" {
		rootConfiguration.Common.Logging.Level = level
	}
	return rootConfiguration, nil
}
