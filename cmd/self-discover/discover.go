package selfdiscover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/self-discover/internal/pipeline"
	"github.com/temirov/self-discover/internal/render"
	"github.com/temirov/self-discover/internal/stream"
)

type discoverCommandOptions struct {
	model      string
	tui        bool
	outputPath string
	timeout    time.Duration
}

func newDiscoverCommand(rootOptions *rootCommandOptions) *cobra.Command {
	options := &discoverCommandOptions{}

	command := &cobra.Command{
		Use:   discoverCommandUse,
		Short: discoverCommandShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscoverCommand(cmd, rootOptions, *options, strings.Join(args, " "))
		},
	}

	command.Flags().StringVar(&options.model, modelFlagName, "", modelFlagUsage)
	command.Flags().BoolVar(&options.tui, tuiFlagName, false, tuiFlagUsage)
	command.Flags().StringVar(&options.outputPath, outputFlagName, "", outputFlagUsage)
	command.Flags().DurationVar(&options.timeout, timeoutFlagName, 0, timeoutFlagUsage)

	return command
}

func runDiscoverCommand(command *cobra.Command, rootOptions *rootCommandOptions, options discoverCommandOptions, task string) error {
	if strings.TrimSpace(task) == "" {
		return errors.New(emptyTaskErrorMessage)
	}
	deps, err := newServices(rootOptions)
	if err != nil {
		return err
	}
	defer deps.close()

	modelConfiguration, err := deps.root.ResolveModel(firstNonBlank(options.model, deps.root.Discover.Model))
	if err != nil {
		return err
	}
	client, err := deps.completionClient()
	if err != nil {
		return err
	}
	runner := deps.discoverRunner(adapterFor(client, modelConfiguration), modelConfiguration)
	if options.timeout > 0 {
		runner.Options.Timeout = options.timeout
	}

	var (
		run    pipeline.Run
		runErr error
	)
	if options.tui {
		runErr = render.RunTUI(command.Context(), fmt.Sprintf(tuiTitleFormat, modelConfiguration.Name),
			func(ctx context.Context, sink stream.Sink) error {
				runner.Sink = sink
				var workErr error
				run, workErr = runner.Run(ctx, task)
				return workErr
			},
			teaOutput(command),
		)
	} else {
		output := render.NewTerminalSink(command.OutOrStdout())
		runner.Sink = output
		run, runErr = runner.Run(command.Context(), task)
		output.Finish()
	}

	if options.outputPath != "" {
		if writeErr := pipeline.WriteTranscript(deps.files, options.outputPath, run, runErr); writeErr != nil {
			deps.logger.Error("transcript not written", zap.String("path", options.outputPath), zap.Error(writeErr))
			return errors.Join(runErr, writeErr)
		}
		if _, printErr := fmt.Fprintf(command.OutOrStdout(), transcriptFormat, options.outputPath); printErr != nil {
			return printErr
		}
	}
	if runErr != nil {
		return runErr
	}

	_, writeErr := fmt.Fprintf(command.OutOrStdout(), runCompletedFormat, run.ID, time.Since(run.StartedAt).Seconds())
	return writeErr
}

func teaOutput(command *cobra.Command) tea.ProgramOption {
	return func(program *tea.Program) {
		tea.WithOutput(command.OutOrStdout())(program)
		tea.WithInput(command.InOrStdin())(program)
	}
}
