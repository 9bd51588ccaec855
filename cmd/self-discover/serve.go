package selfdiscover

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/self-discover/internal/server"
)

type serveCommandOptions struct {
	address string
}

func newServeCommand(rootOptions *rootCommandOptions) *cobra.Command {
	options := &serveCommandOptions{}

	command := &cobra.Command{
		Use:   serveCommandUse,
		Short: serveCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeCommand(cmd, rootOptions, *options)
		},
	}
	command.Flags().StringVar(&options.address, addressFlagName, "", addressFlagUsage)

	return command
}

// runServeCommand starts without search when the search key is missing; the
// search endpoint then answers 503.
func runServeCommand(command *cobra.Command, rootOptions *rootCommandOptions, options serveCommandOptions) error {
	deps, err := newServices(rootOptions)
	if err != nil {
		return err
	}
	defer deps.close()

	defaultModel, err := deps.root.ResolveModel(deps.root.Discover.Model)
	if err != nil {
		return err
	}
	client, err := deps.completionClient()
	if err != nil {
		return err
	}
	adapter := adapterFor(client, defaultModel)

	httpServer := server.Server{
		Client:   adapter,
		Discover: deps.discoverRunner(adapter, defaultModel),
		Models:   deps.root.Models,
		Chat: server.ChatDefaults{
			SystemPrompt: deps.root.Chat.SystemPrompt,
			UserPrompt:   deps.root.Chat.UserPrompt,
		},
		Logger: deps.logger.Named("server"),
	}
	searchService, searchErr := deps.searchService(command.Context(), client)
	if searchErr != nil {
		deps.logger.Warn("search disabled", zap.Error(searchErr))
	} else {
		httpServer.Search = &searchService
	}

	address := firstNonBlank(options.address, deps.root.Server.Address)
	return httpServer.ListenAndServe(command.Context(), address)
}
