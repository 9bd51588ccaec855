package selfdiscover

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newModelsCommand(rootOptions *rootCommandOptions) *cobra.Command {
	return &cobra.Command{
		Use:   modelsCommandUse,
		Short: modelsCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelsCommand(cmd, rootOptions)
		},
	}
}

func runModelsCommand(command *cobra.Command, rootOptions *rootCommandOptions) error {
	rootConfiguration, err := loadCommandConfiguration(rootOptions)
	if err != nil {
		return err
	}

	outputWriter := command.OutOrStdout()
	for _, modelConfiguration := range rootConfiguration.Models {
		defaultLabel := ""
		if modelConfiguration.Default {
			defaultLabel = ", " + defaultMarker
		}
		_, writeErr := fmt.Fprintf(outputWriter, modelListingFormat,
			modelConfiguration.Name,
			modelConfiguration.ModelID,
			dashIfZeroFloat(modelConfiguration.Temperature),
			dashIfZeroInt(modelConfiguration.MaxTokens),
			defaultLabel,
		)
		if writeErr != nil {
			return fmt.Errorf("write model listing: %w", writeErr)
		}
	}
	return nil
}

func dashIfZeroFloat(value float64) string {
	if value == 0 {
		return dashPlaceholder
	}
	return strconv.FormatFloat(value, 'g', -1, 64)
}

func dashIfZeroInt(value int) string {
	if value == 0 {
		return dashPlaceholder
	}
	return strconv.Itoa(value)
}
