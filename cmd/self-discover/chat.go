package selfdiscover

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/self-discover/internal/pipeline"
	"github.com/temirov/self-discover/internal/render"
	"github.com/temirov/self-discover/internal/stream"
)

type chatCommandOptions struct {
	model        string
	systemPrompt string
	userPrompt   string
	noSpinner    bool
}

func newChatCommand(rootOptions *rootCommandOptions) *cobra.Command {
	options := &chatCommandOptions{}

	command := &cobra.Command{
		Use:   chatCommandUse,
		Short: chatCommandShort,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				options.userPrompt = strings.Join(args, " ")
			}
			return runChatCommand(cmd, rootOptions, *options)
		},
	}

	command.Flags().StringVar(&options.model, modelFlagName, "", modelFlagUsage)
	command.Flags().StringVar(&options.systemPrompt, systemFlagName, "", systemFlagUsage)
	command.Flags().StringVar(&options.userPrompt, promptFlagName, "", promptFlagUsage)
	command.Flags().BoolVar(&options.noSpinner, noSpinnerFlagName, false, noSpinnerUsage)

	return command
}

func runChatCommand(command *cobra.Command, rootOptions *rootCommandOptions, options chatCommandOptions) error {
	deps, err := newServices(rootOptions)
	if err != nil {
		return err
	}
	defer deps.close()

	modelConfiguration, err := deps.root.ResolveModel(options.model)
	if err != nil {
		return err
	}
	userPrompt := firstNonBlank(options.userPrompt, deps.root.Chat.UserPrompt)
	if userPrompt == "" {
		return errors.New(emptyPromptErrorMessage)
	}
	client, err := deps.completionClient()
	if err != nil {
		return err
	}

	output := render.NewTerminalSink(command.OutOrStdout())
	waiting := startWaiting(command, options.noSpinner)
	started := time.Now()

	_, chatErr := pipeline.Chat(command.Context(), adapterFor(client, modelConfiguration), pipeline.LLMRequest{
		SystemPrompt: firstNonBlank(options.systemPrompt, deps.root.Chat.SystemPrompt),
		UserPrompt:   userPrompt,
		Model:        modelConfiguration.ModelID,
		Temperature:  modelConfiguration.Temperature,
		MaxTokens:    modelConfiguration.MaxTokens,
	}, chatLabel, stream.Tee(waiting, output))
	waiting.stop()
	output.Finish()
	if chatErr != nil {
		return chatErr
	}

	_, writeErr := fmt.Fprintf(command.OutOrStdout(), completedFormat, time.Since(started).Seconds())
	return writeErr
}

// waitingSink shows a spinner until the first publication arrives.
type waitingSink struct {
	once    sync.Once
	spinner *render.Spinner
}

func startWaiting(command *cobra.Command, disabled bool) *waitingSink {
	if disabled {
		return &waitingSink{}
	}
	indicator := render.NewSpinner(command.ErrOrStderr(), waitingMessage)
	indicator.Start()
	return &waitingSink{spinner: indicator}
}

func (w *waitingSink) Publish(string, string) { w.stop() }

func (w *waitingSink) stop() {
	w.once.Do(func() {
		if w.spinner != nil {
			w.spinner.Stop()
		}
	})
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
