package fsops

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FS is an abstract filesystem used across the app and tests.
type FS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	AppendFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
}

const appendFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

// ---------- OS-backed implementation ----------

type OS struct{}

func NewOS() OS { return OS{} }

func (OS) ReadFile(name string) ([]byte, error) { return os.ReadFile(filepath.Clean(name)) }
func (OS) WriteFile(name string, b []byte, p os.FileMode) error {
	return os.WriteFile(filepath.Clean(name), b, p)
}
func (OS) AppendFile(name string, b []byte, p os.FileMode) error {
	file, err := os.OpenFile(filepath.Clean(name), appendFlags, p)
	if err != nil {
		return err
	}
	if _, err := file.Write(b); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
func (OS) Stat(name string) (fs.FileInfo, error)     { return os.Stat(filepath.Clean(name)) }
func (OS) MkdirAll(path string, p os.FileMode) error { return os.MkdirAll(filepath.Clean(path), p) }

// ---------- In-memory implementation (for tests/integration) ----------

type Mem struct{ Fs afero.Fs }

func NewMem() Mem { return Mem{Fs: afero.NewMemMapFs()} }

func (m Mem) ReadFile(name string) ([]byte, error) { return afero.ReadFile(m.Fs, filepath.Clean(name)) }
func (m Mem) WriteFile(name string, b []byte, p os.FileMode) error {
	return afero.WriteFile(m.Fs, filepath.Clean(name), b, p)
}
func (m Mem) AppendFile(name string, b []byte, p os.FileMode) error {
	file, err := m.Fs.OpenFile(filepath.Clean(name), appendFlags, p)
	if err != nil {
		return err
	}
	if _, err := file.Write(b); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
func (m Mem) Stat(name string) (fs.FileInfo, error) { return m.Fs.Stat(filepath.Clean(name)) }
func (m Mem) MkdirAll(path string, p os.FileMode) error {
	return m.Fs.MkdirAll(filepath.Clean(path), p)
}

// ---------- High-level façade used by writers ----------

type Ops struct{ FS FS }

func NewOps(fs FS) Ops { return Ops{FS: fs} }

func (o Ops) EnsureDir(path string) error { return o.FS.MkdirAll(filepath.Dir(path), 0o755) }
func (o Ops) FileExists(p string) bool    { _, err := o.FS.Stat(p); return err == nil }

// WriteFile creates parent directories before writing.
func (o Ops) WriteFile(path string, data []byte) error {
	if err := o.EnsureDir(path); err != nil {
		return err
	}
	return o.FS.WriteFile(path, data, 0o644)
}

// AppendLine creates parent directories and appends data followed by a newline.
func (o Ops) AppendLine(path string, data []byte) error {
	if err := o.EnsureDir(path); err != nil {
		return err
	}
	line := make([]byte, 0, len(data)+1)
	line = append(line, data...)
	line = append(line, '\n')
	return o.FS.AppendFile(path, line, 0o644)
}
