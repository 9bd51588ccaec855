package selfdiscover

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/temirov/self-discover/internal/config"
)

const (
	environmentPrefix     = "SELF_DISCOVER"
	configPathKey         = "config"
	apiEndpointKey        = "api.endpoint"
	loggingLevelKey       = "logging.level"
	modelKey              = "model"
	serverAddressKey      = "server.address"
	secretKeyPrefix       = "secret."
	environmentKeyDivider = "."
	environmentKeyJoiner  = "_"
)

// newEnvironment reads SELF_DISCOVER_* variables; config maps to
// SELF_DISCOVER_CONFIG, api.endpoint to SELF_DISCOVER_API_ENDPOINT and so on.
func newEnvironment() *viper.Viper {
	environment := viper.New()
	environment.SetEnvPrefix(environmentPrefix)
	environment.SetEnvKeyReplacer(strings.NewReplacer(environmentKeyDivider, environmentKeyJoiner))
	environment.AutomaticEnv()
	return environment
}

func applyEnvironmentOverrides(root *config.Root, environment *viper.Viper) error {
	if endpoint := strings.TrimSpace(environment.GetString(apiEndpointKey)); endpoint != "" {
		root.Common.API.Endpoint = endpoint
	}
	if level := strings.TrimSpace(environment.GetString(loggingLevelKey)); level != "" {
		root.Common.Logging.Level = level
	}
	if address := strings.TrimSpace(environment.GetString(serverAddressKey)); address != "" {
		root.Server.Address = address
	}
	if model := strings.TrimSpace(environment.GetString(modelKey)); model != "" {
		return makeDefaultModel(root, model)
	}
	return nil
}

// makeDefaultModel moves the default flag to the named model.
func makeDefaultModel(root *config.Root, name string) error {
	selected, err := root.ResolveModel(name)
	if err != nil {
		return err
	}
	for index := range root.Models {
		root.Models[index].Default = root.Models[index].Name == selected.Name
	}
	return nil
}

// lookupSecret reads a secret from the variable the configuration names,
// verbatim and without the SELF_DISCOVER prefix.
func lookupSecret(environment *viper.Viper, variableName string) string {
	variableName = strings.TrimSpace(variableName)
	if variableName == "" {
		return ""
	}
	key := secretKeyPrefix + strings.ToLower(variableName)
	_ = environment.BindEnv(key, variableName)
	return strings.TrimSpace(environment.GetString(key))
}
