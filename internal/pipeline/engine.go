package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/self-discover/internal/prompts"
	"github.com/temirov/self-discover/internal/stream"
)

const (
	// DefaultSystemPrompt is sent with every stage prompt.
	DefaultSystemPrompt = "You are a world-class expert in reasoning."

	blankTaskErrorFormat   = "%w: task is blank"
	stageErrorFormat       = "%s stage: %v"
	openStreamErrorFormat  = "open stream: %w"
	transitionErrorFormat  = "advance run: %w"
	promptSizeWarnMessage  = "stage prompt exceeds warn size"
	stageStartedMessage    = "stage started"
	stageFinishedMessage   = "stage finished"
	stageFailedMessage     = "stage failed"
	runFinishedMessage     = "run finished"
	unexpectedStageMessage = "unexpected stage"
)

// RunOptions carries the per-run knobs shared by every stage.
type RunOptions struct {
	Model                string
	SystemPrompt         string
	Temperature          float64
	MaxTokens            int
	Timeout              time.Duration
	PromptWarnCharacters int
}

// Runner executes the four-stage reasoning pipeline. It is a value type: each
// Run owns its machine, stream and results.
type Runner struct {
	Client   StreamingClient
	Prompts  PromptBuilder
	Sink     stream.Sink
	Options  RunOptions
	Logger   *zap.Logger
	Observer func(from State, to State)
}

// StageResult is the fully materialized output of one stage.
type StageResult struct {
	Stage    Stage
	Prompt   string
	Text     string
	Duration time.Duration
}

// Run records a pipeline execution. Results holds one entry per completed
// stage, in order.
type Run struct {
	ID        uuid.UUID
	Task      string
	Model     string
	StartedAt time.Time
	Results   []StageResult
	State     State
}

// Result returns the materialized output of stage, if it completed.
func (r Run) Result(stage Stage) (StageResult, bool) {
	for _, result := range r.Results {
		if result.Stage == stage {
			return result, true
		}
	}
	return StageResult{}, false
}

// Answer is the execute stage's text, or empty if the run did not finish.
func (r Run) Answer() string {
	result, _ := r.Result(StageExecute)
	return result.Text
}

// StageError reports the stage at which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf(stageErrorFormat, e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Run executes Select, Adapt, Structure and Execute strictly in sequence,
// feeding each stage's full text into the next stage's prompt. A blank task
// is rejected before any network call and leaves the run Idle. Any stage
// failure moves the run to Failed and aborts the remaining stages. An empty
// stage output is a failure unless the prompt builder accepts blank prior
// text (prompts.Builder.AllowBlankPrior), in which case the run carries on.
func (r Runner) Run(ctx context.Context, task string) (Run, error) {
	run := Run{Task: task, Model: r.Options.Model, State: StateIdle}
	if strings.TrimSpace(task) == "" {
		return run, fmt.Errorf(blankTaskErrorFormat, prompts.ErrInvalidInput)
	}

	run.ID = uuid.New()
	run.StartedAt = time.Now()
	logger := r.logger().With(zap.String("run_id", run.ID.String()), zap.String("model", run.Model))
	machine := NewMachine(r.Observer)
	builder := r.promptBuilder()

	prior := ""
	for _, stage := range Stages {
		if err := machine.Transition(stageStates[stage]); err != nil {
			run.State = machine.State()
			return run, fmt.Errorf(transitionErrorFormat, err)
		}
		run.State = machine.State()

		result, stageErr := r.runStage(ctx, logger, builder, stage, prior, task)
		if stageErr != nil {
			logger.Warn(stageFailedMessage, zap.Stringer("stage", stage), zap.Error(stageErr))
			_ = machine.Transition(StateFailed)
			run.State = machine.State()
			return run, &StageError{Stage: stage, Err: stageErr}
		}
		run.Results = append(run.Results, result)
		prior = result.Text
	}

	if err := machine.Transition(StateDone); err != nil {
		return run, fmt.Errorf(transitionErrorFormat, err)
	}
	run.State = machine.State()
	logger.Info(runFinishedMessage, zap.Duration("elapsed", time.Since(run.StartedAt)))
	return run, nil
}

func (r Runner) runStage(ctx context.Context, logger *zap.Logger, builder PromptBuilder, stage Stage, prior string, task string) (StageResult, error) {
	prompt, buildErr := buildStagePrompt(builder, stage, prior, task)
	if buildErr != nil {
		return StageResult{}, buildErr
	}
	if limit := r.Options.PromptWarnCharacters; limit > 0 && len(prompt) > limit {
		logger.Warn(promptSizeWarnMessage,
			zap.Stringer("stage", stage),
			zap.Int("characters", len(prompt)),
			zap.Int("warn_characters", limit),
		)
	}

	stageCtx, cancel := r.stageContext(ctx)
	defer cancel()

	logger.Debug(stageStartedMessage, zap.Stringer("stage", stage), zap.Int("prompt_characters", len(prompt)))
	started := time.Now()
	text, err := Chat(stageCtx, r.Client, r.request(prompt), stage.Label(), r.Sink)
	if err != nil {
		return StageResult{}, err
	}
	duration := time.Since(started)
	logger.Debug(stageFinishedMessage, zap.Stringer("stage", stage), zap.Duration("elapsed", duration), zap.Int("characters", len(text)))
	return StageResult{Stage: stage, Prompt: prompt, Text: text, Duration: duration}, nil
}

func buildStagePrompt(builder PromptBuilder, stage Stage, prior string, task string) (string, error) {
	switch stage {
	case StageSelect:
		return builder.Select(task)
	case StageAdapt:
		return builder.Adapt(prior, task)
	case StageStructure:
		return builder.Structure(prior, task)
	case StageExecute:
		return builder.Execute(prior, task)
	default:
		return "", fmt.Errorf("%s: %s", unexpectedStageMessage, stage)
	}
}

func (r Runner) request(prompt string) LLMRequest {
	systemPrompt := r.Options.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return LLMRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Model:        r.Options.Model,
		Temperature:  r.Options.Temperature,
		MaxTokens:    r.Options.MaxTokens,
	}
}

func (r Runner) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Options.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Options.Timeout)
}

func (r Runner) promptBuilder() PromptBuilder {
	if r.Prompts != nil {
		return r.Prompts
	}
	return prompts.NewBuilder(nil)
}

func (r Runner) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

// Chat opens one streamed completion and accumulates it under label. The
// stream is closed on every path.
func Chat(ctx context.Context, client StreamingClient, request LLMRequest, label string, sink stream.Sink) (string, error) {
	source, err := client.Stream(ctx, request)
	if err != nil {
		return "", fmt.Errorf(openStreamErrorFormat, err)
	}
	return stream.Accumulate(ctx, source, label, sink)
}
