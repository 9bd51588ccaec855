// Package logbook appends one row per search interaction to a spreadsheet or
// a local JSON-lines file.
package logbook

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// TimeLayout renders timestamps as yy-mm-dd HH:MM:SS.
const TimeLayout = "06-01-02 15:04:05"

// RejectedAnswer is the answer recorded for a query refused before the agent ran.
const RejectedAnswer = "nil"

// RedactedPrompt replaces the prompt of refused queries unless flagged content
// logging is enabled.
const RedactedPrompt = "[redacted]"

// Entry is one logbook row.
type Entry struct {
	Time      time.Time `json:"time"`
	Prompt    string    `json:"prompt"`
	Generated bool      `json:"generated"`
	Answer    string    `json:"answer"`
}

// Row is the spreadsheet rendering of the entry.
func (e Entry) Row() []interface{} {
	return []interface{}{e.Time.Format(TimeLayout), e.Prompt, e.Generated, e.Answer}
}

// Recorder appends entries. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop drops every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

// Multi records to every recorder in order and returns the first failure.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, entry Entry) error {
	var first error
	for index, recorder := range m {
		if err := recorder.Record(ctx, entry); err != nil && first == nil {
			first = errors.Wrapf(err, "recorder %d", index)
		}
	}
	return first
}

// Redacting hides the prompt of refused queries before passing the entry on.
type Redacting struct {
	Next              Recorder
	LogFlaggedContent bool
}

func (r Redacting) Record(ctx context.Context, entry Entry) error {
	if !entry.Generated && !r.LogFlaggedContent {
		entry.Prompt = RedactedPrompt
	}
	return r.Next.Record(ctx, entry)
}
