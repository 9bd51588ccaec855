package search

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/temirov/self-discover/internal/logbook"
	"github.com/temirov/self-discover/internal/moderation"
)

// Gate admits or refuses a query before the agent runs.
type Gate interface {
	Check(ctx context.Context, text string) error
}

// Service screens a query, runs the agent and records the interaction.
// Logbook failures are logged and never fail the request.
type Service struct {
	Gate     Gate
	Agent    Agent
	Recorder logbook.Recorder
	Logger   *zap.Logger
	Now      func() time.Time
	// Screened, when set, receives the gate verdict before the agent starts.
	Screened func(err error)
}

// Ask returns moderation.ErrRejected (wrapped) when the gate refuses the
// query; the refusal is still recorded with generated=false.
func (s Service) Ask(ctx context.Context, query string) (Answer, error) {
	if s.Gate != nil {
		err := s.Gate.Check(ctx, query)
		if s.Screened != nil {
			s.Screened(err)
		}
		if err != nil {
			if errors.Is(err, moderation.ErrRejected) {
				s.record(ctx, logbook.Entry{Prompt: query, Generated: false, Answer: logbook.RejectedAnswer})
			}
			return Answer{Input: query}, err
		}
	}

	answer, err := s.Agent.Run(ctx, query)
	if err != nil {
		return answer, err
	}
	s.record(ctx, logbook.Entry{Prompt: answer.Input, Generated: true, Answer: answer.Output})
	return answer, nil
}

func (s Service) record(ctx context.Context, entry logbook.Entry) {
	if s.Recorder == nil {
		return
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	entry.Time = now()
	if err := s.Recorder.Record(ctx, entry); err != nil {
		logger := s.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Warn("logbook append failed", zap.Error(err))
	}
}
