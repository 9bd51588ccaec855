package render

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// Spinner wraps a terminal spinner shown while waiting for the first delta.
type Spinner struct {
	s   *spinner.Spinner
	out io.Writer
}

// NewSpinner creates a spinner with the given message writing to out.
func NewSpinner(out io.Writer, msg string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = "  " + msg
	_ = s.Color("cyan")
	return &Spinner{s: s, out: out}
}

func (sp *Spinner) Start() { sp.s.Start() }

// Stop halts the spinner and clears the line. Stopping twice is harmless.
func (sp *Spinner) Stop() { sp.s.Stop() }

// Success stops the spinner and prints a green check.
func (sp *Spinner) Success(msg string) {
	sp.s.Stop()
	color.New(color.FgGreen).Fprintf(sp.out, "  ✓ %s\n", msg)
}

// Fail stops the spinner and prints a red cross.
func (sp *Spinner) Fail(msg string) {
	sp.s.Stop()
	color.New(color.FgRed).Fprintf(sp.out, "  ✗ %s\n", msg)
}
