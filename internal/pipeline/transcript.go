package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/self-discover/internal/fsops"
)

const writeTranscriptErrorFormat = "write transcript %s: %w"

// RenderTranscript formats a run as Markdown: a header with the task and run
// metadata, then each completed stage under its label. runErr, if non-nil, is
// appended as the failure reason.
func RenderTranscript(run Run, runErr error) string {
	var sb strings.Builder
	sb.WriteString("# Self-discover run\n\n")
	sb.WriteString(fmt.Sprintf("- Run: `%s`\n", run.ID))
	sb.WriteString(fmt.Sprintf("- Model: `%s`\n", run.Model))
	if !run.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- Started: %s\n", run.StartedAt.Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("- State: %s\n\n", run.State))
	sb.WriteString("## Task\n\n")
	sb.WriteString(strings.TrimSpace(run.Task))
	sb.WriteString("\n")

	for _, result := range run.Results {
		sb.WriteString("\n## ")
		sb.WriteString(result.Stage.Label())
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("_%s_\n\n", result.Duration.Round(time.Millisecond)))
		sb.WriteString(strings.TrimSpace(result.Text))
		sb.WriteString("\n")
	}

	if runErr != nil {
		sb.WriteString("\n## Failure\n\n")
		sb.WriteString(runErr.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// WriteTranscript renders the run and writes it to path, creating parent
// directories as needed.
func WriteTranscript(files fsops.FS, path string, run Run, runErr error) error {
	if err := fsops.NewOps(files).WriteFile(path, []byte(RenderTranscript(run, runErr))); err != nil {
		return fmt.Errorf(writeTranscriptErrorFormat, path, err)
	}
	return nil
}
