// Package render displays streamed completions: a plain terminal writer, a
// bubbletea full-screen view, and Markdown rendering of final answers.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// TerminalSink prints each label once as a coloured heading and then only the
// newly arrived suffix of the growing text. It is safe for concurrent use.
type TerminalSink struct {
	mu      sync.Mutex
	out     io.Writer
	heading *color.Color
	current string
	active  bool
	printed map[string]int
}

func NewTerminalSink(out io.Writer) *TerminalSink {
	return &TerminalSink{
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		printed: map[string]int{},
	}
}

func (s *TerminalSink) Publish(label string, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || label != s.current {
		if s.active {
			fmt.Fprintln(s.out)
		}
		if strings.TrimSpace(label) != "" {
			s.heading.Fprintf(s.out, "\n%s\n\n", label)
		}
		s.current = label
		s.active = true
	}

	offset := s.printed[label]
	if offset > len(text) {
		offset = 0
	}
	fmt.Fprint(s.out, text[offset:])
	s.printed[label] = len(text)
}

// Finish terminates the last streamed block with a newline.
func (s *TerminalSink) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		fmt.Fprintln(s.out)
	}
	s.active = false
	s.printed = map[string]int{}
}
