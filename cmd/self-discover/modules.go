package selfdiscover

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/self-discover/internal/prompts"
)

func newModulesCommand(rootOptions *rootCommandOptions) *cobra.Command {
	return &cobra.Command{
		Use:   modulesCommandUse,
		Short: modulesCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootConfiguration, err := loadCommandConfiguration(rootOptions)
			if err != nil {
				return err
			}
			catalog := rootConfiguration.Catalog
			if len(catalog) == 0 {
				catalog = prompts.ReasoningModules
			}
			for index, module := range catalog {
				if _, writeErr := fmt.Fprintf(cmd.OutOrStdout(), moduleListingFormat, index+1, module); writeErr != nil {
					return fmt.Errorf("write module listing: %w", writeErr)
				}
			}
			return nil
		},
	}
}
