// Package stream folds streamed completion deltas into growing text and
// publishes every intermediate value to a display sink.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Source is a lazy, finite, non-restartable sequence of text deltas.
// Recv returns io.EOF once the remote side signals completion. An empty
// delta is a chunk without content, not a termination signal.
type Source interface {
	Recv() (string, error)
	Close() error
}

// Sink receives the accumulated text of a labelled stream after every delta.
type Sink interface {
	Publish(label string, text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(label string, text string)

func (fn SinkFunc) Publish(label string, text string) { fn(label, text) }

// Discard drops every published value.
var Discard Sink = SinkFunc(func(string, string) {})

type teeSink []Sink

func (sinks teeSink) Publish(label string, text string) {
	for _, sink := range sinks {
		sink.Publish(label, text)
	}
}

// Tee publishes to every non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	filtered := make(teeSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return filtered
}

// Accumulate drains source, publishing the growing text under label after
// each non-empty delta. On a receive error the partial text is returned
// together with the unchanged error; already published values stay
// published. The source is closed on every return path.
func Accumulate(ctx context.Context, source Source, label string, sink Sink) (string, error) {
	if sink == nil {
		sink = Discard
	}
	defer func() { _ = source.Close() }()

	var accumulated strings.Builder
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return accumulated.String(), ctxErr
		}
		delta, recvErr := source.Recv()
		if recvErr != nil {
			if errors.Is(recvErr, io.EOF) {
				return accumulated.String(), nil
			}
			return accumulated.String(), recvErr
		}
		if delta == "" {
			continue
		}
		accumulated.WriteString(delta)
		sink.Publish(label, accumulated.String())
	}
}
