// Package search implements a ReAct-style web-search agent on top of a
// single-completion LLM and the Tavily search API.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/self-discover/internal/stream"
)

const (
	defaultMaxIterations = 5
	defaultConcurrency   = 3
	stepLabelFormat      = "Step %d"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNoLLM         = errors.New("planner model is not configured")
	ErrNoSearcher    = errors.New("search provider is not configured")
)

// Completer issues one non-streaming completion.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// Step is one Thought/Action/Observation round.
type Step struct {
	Thought     string
	Queries     []string
	Observation string
}

func (s Step) transcript() string {
	var b strings.Builder
	b.WriteString("Thought: ")
	b.WriteString(s.Thought)
	b.WriteString("\n")
	if len(s.Queries) > 0 {
		b.WriteString("Action: search\n")
		for _, query := range s.Queries {
			b.WriteString("Action Input: ")
			b.WriteString(query)
			b.WriteString("\n")
		}
	}
	b.WriteString("Observation: ")
	b.WriteString(s.Observation)
	b.WriteString("\n")
	return b.String()
}

// Display is the human-readable rendering published to sinks.
func (s Step) Display() string {
	var b strings.Builder
	if s.Thought != "" {
		b.WriteString(s.Thought)
		b.WriteString("\n")
	}
	for _, query := range s.Queries {
		b.WriteString("🔍 ")
		b.WriteString(query)
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimSpace(s.Observation))
	return b.String()
}

// Answer is the outcome of one agent run. Exhausted reports a best-effort
// answer written after the iteration budget ran out.
type Answer struct {
	Input     string
	Output    string
	Steps     []Step
	Exhausted bool
	Elapsed   time.Duration
}

// Agent alternates planner completions and web searches until the planner
// writes a final answer or the iteration budget is spent.
type Agent struct {
	LLM           Completer
	Searcher      Searcher
	MaxIterations int
	Concurrency   int
	Sink          stream.Sink
	Logger        *zap.Logger
}

func (a Agent) Run(ctx context.Context, question string) (Answer, error) {
	started := time.Now()
	question = strings.TrimSpace(question)
	answer := Answer{Input: question}
	if question == "" {
		return answer, ErrEmptyQuestion
	}
	if a.LLM == nil {
		return answer, ErrNoLLM
	}
	if a.Searcher == nil {
		return answer, ErrNoSearcher
	}
	logger := a.logger()
	sink := a.Sink
	if sink == nil {
		sink = stream.Discard
	}

	for iteration := 1; iteration <= a.maxIterations(); iteration++ {
		raw, err := a.LLM.Complete(ctx, plannerSystemPrompt, buildPlannerUserPrompt(question, answer.Steps))
		if err != nil {
			return answer, errors.Wrap(err, "planner")
		}
		next := parseDecision(raw)

		step := Step{Thought: next.thought}
		switch next.kind {
		case decisionAnswer:
			answer.Output = next.answer
			answer.Elapsed = time.Since(started)
			logger.Info("agent answered", zap.Int("iterations", iteration), zap.Duration("elapsed", answer.Elapsed))
			return answer, nil
		case decisionSearch:
			step.Queries = next.queries
			observation, searchErr := a.runQueries(ctx, next.queries)
			if searchErr != nil {
				return answer, searchErr
			}
			step.Observation = observation
		default:
			logger.Debug("planner output not understood", zap.String("output", raw))
			step.Observation = invalidFormatObservation
		}

		answer.Steps = append(answer.Steps, step)
		sink.Publish(fmt.Sprintf(stepLabelFormat, iteration), step.Display())
	}

	final, err := a.LLM.Complete(ctx, finalizerSystemPrompt, buildFinalizerUserPrompt(question, answer.Steps))
	if err != nil {
		return answer, errors.Wrap(err, "finalizer")
	}
	answer.Output = StripThinkBlocks(final)
	answer.Exhausted = true
	answer.Elapsed = time.Since(started)
	logger.Warn("agent exhausted iterations", zap.Int("iterations", a.maxIterations()))
	return answer, nil
}

// runQueries searches every query concurrently and joins the observations in
// query order.
func (a Agent) runQueries(ctx context.Context, queries []string) (string, error) {
	observations := make([]string, len(queries))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.concurrency())
	for index, query := range queries {
		index, query := index, query
		group.Go(func() error {
			results, err := a.Searcher.Search(groupCtx, query)
			if err != nil {
				return errors.Wrapf(err, "search %q", query)
			}
			observations[index] = formatObservation(query, results)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", err
	}
	return strings.Join(observations, "\n"), nil
}

func (a Agent) maxIterations() int {
	if a.MaxIterations > 0 {
		return a.MaxIterations
	}
	return defaultMaxIterations
}

func (a Agent) concurrency() int {
	if a.Concurrency > 0 {
		return a.Concurrency
	}
	return defaultConcurrency
}

func (a Agent) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}
