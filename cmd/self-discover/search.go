package selfdiscover

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/temirov/self-discover/internal/moderation"
	"github.com/temirov/self-discover/internal/render"
	"github.com/temirov/self-discover/internal/stream"
)

type searchCommandOptions struct {
	noSpinner bool
}

func newSearchCommand(rootOptions *rootCommandOptions) *cobra.Command {
	options := &searchCommandOptions{}

	command := &cobra.Command{
		Use:   searchCommandUse,
		Short: searchCommandShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearchCommand(cmd, rootOptions, *options, strings.Join(args, " "))
		},
	}
	command.Flags().BoolVar(&options.noSpinner, noSpinnerFlagName, false, noSpinnerUsage)

	return command
}

// runSearchCommand prints a refused query as a warning and exits cleanly; the
// refusal has already been recorded in the logbook.
func runSearchCommand(command *cobra.Command, rootOptions *rootCommandOptions, options searchCommandOptions, query string) error {
	if strings.TrimSpace(query) == "" {
		return errors.New(emptyQueryErrorMessage)
	}
	deps, err := newServices(rootOptions)
	if err != nil {
		return err
	}
	defer deps.close()

	client, err := deps.completionClient()
	if err != nil {
		return err
	}
	service, err := deps.searchService(command.Context(), client)
	if err != nil {
		return err
	}

	output := render.NewTerminalSink(command.OutOrStdout())
	var waiting *waitingSink
	checking := render.NewSpinner(command.ErrOrStderr(), checkingMessage)
	service.Screened = func(gateErr error) {
		var rejection *moderation.Rejection
		switch {
		case gateErr == nil:
			checking.Success(acceptedMessage)
		case errors.As(gateErr, &rejection):
			checking.Fail(rejection.Reason)
		default:
			checking.Fail(checkFailedMessage)
		}
		waiting = startWaiting(command, options.noSpinner)
	}
	service.Agent.Sink = stream.SinkFunc(func(label string, text string) {
		if waiting != nil {
			waiting.stop()
		}
		output.Publish(label, text)
	})

	started := time.Now()
	if !options.noSpinner {
		checking.Start()
	}
	answer, askErr := service.Ask(command.Context(), query)
	checking.Stop()
	if waiting != nil {
		waiting.stop()
	}
	output.Finish()

	var rejection *moderation.Rejection
	if errors.As(askErr, &rejection) {
		_, writeErr := color.New(color.FgYellow).Fprintf(command.ErrOrStderr(), rejectedFormat, rejection.Reason)
		return writeErr
	}
	if askErr != nil {
		return askErr
	}

	if answer.Exhausted {
		if _, writeErr := color.New(color.FgYellow).Fprint(command.ErrOrStderr(), exhaustedNote); writeErr != nil {
			return writeErr
		}
	}
	if _, writeErr := fmt.Fprint(command.OutOrStdout(), render.Markdown(fmt.Sprintf(answerMarkdown, answer.Input, answer.Output), 0)); writeErr != nil {
		return writeErr
	}
	_, writeErr := fmt.Fprintf(command.OutOrStdout(), completedFormat, time.Since(started).Seconds())
	return writeErr
}
