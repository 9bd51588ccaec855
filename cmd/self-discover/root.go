// Package selfdiscover wires configuration, the completion client and the
// reasoning flows into the self-discover command line.
package selfdiscover

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type rootCommandOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds a fresh command tree. Every call returns independent
// flag state, so tests can execute it repeatedly.
func NewRootCommand() *cobra.Command {
	options := &rootCommandOptions{configPath: defaultConfigPath}

	command := &cobra.Command{
		Use:           applicationName,
		Short:         rootCommandShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.PersistentFlags().StringVar(&options.configPath, configFlagName, defaultConfigPath, configFlagUsage)
	command.PersistentFlags().StringVar(&options.logLevel, logLevelFlagName, "", logLevelFlagUsage)

	command.AddCommand(
		newChatCommand(options),
		newDiscoverCommand(options),
		newSearchCommand(options),
		newServeCommand(options),
		newModelsCommand(options),
		newModulesCommand(options),
	)
	return command
}

// Execute runs the command tree against os.Args. An interrupt cancels the
// command context, which ends in-flight streams.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}
