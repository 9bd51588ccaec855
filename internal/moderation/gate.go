// Package moderation screens user queries before any agent work starts.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrRejected marks a query that must not reach the agent.
var ErrRejected = errors.New("query rejected")

const (
	reasonFlagged    = "flagged by moderation"
	reasonNotFactual = "not a factual question"
	reasonBlank      = "query is blank"

	moderationErrorFormat = "moderation check: %w"
	factualityErrorFormat = "factuality check: %w"
)

// Moderator reports whether text is flagged by a moderation endpoint.
type Moderator interface {
	Flagged(ctx context.Context, text string) (bool, error)
}

// FactChecker reports whether text is a factual question.
type FactChecker interface {
	Factual(ctx context.Context, text string) (bool, error)
}

// Rejection carries the reason a query was refused. It matches ErrRejected.
type Rejection struct {
	Reason string
}

func (r *Rejection) Error() string { return fmt.Sprintf("%s: %s", ErrRejected, r.Reason) }

func (r *Rejection) Is(target error) bool { return target == ErrRejected }

// Gate runs the moderation check and, when configured, the factuality check.
// A nil Moderator disables moderation. A failing check is returned as is and
// the query is not admitted.
type Gate struct {
	Moderator  Moderator
	Factuality FactChecker
	Logger     *zap.Logger
}

func (g Gate) Check(ctx context.Context, text string) error {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(text) == "" {
		return &Rejection{Reason: reasonBlank}
	}

	if g.Moderator != nil {
		flagged, err := g.Moderator.Flagged(ctx, text)
		if err != nil {
			return fmt.Errorf(moderationErrorFormat, err)
		}
		if flagged {
			logger.Info("query rejected", zap.String("reason", reasonFlagged))
			return &Rejection{Reason: reasonFlagged}
		}
	}

	if g.Factuality != nil {
		factual, err := g.Factuality.Factual(ctx, text)
		if err != nil {
			return fmt.Errorf(factualityErrorFormat, err)
		}
		if !factual {
			logger.Info("query rejected", zap.String("reason", reasonNotFactual))
			return &Rejection{Reason: reasonNotFactual}
		}
	}
	return nil
}
