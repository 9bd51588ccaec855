package logbook

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/temirov/self-discover/internal/fsops"
)

// FileRecorder appends entries as JSON lines. Appends are serialized.
type FileRecorder struct {
	mu   sync.Mutex
	ops  fsops.Ops
	path string
}

func NewFileRecorder(files fsops.FS, path string) *FileRecorder {
	return &FileRecorder{ops: fsops.NewOps(files), path: path}
}

func (f *FileRecorder) Record(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encode logbook entry")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ops.AppendLine(f.path, line); err != nil {
		return errors.Wrapf(err, "append logbook entry to %s", f.path)
	}
	return nil
}
