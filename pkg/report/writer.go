package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Writer is where formatters put their output.
type Writer interface {
	// MkdirAll creates dir and its parents. Existing directories are fine.
	MkdirAll(dir string) error
	// WriteFile replaces path with data. Readers never observe a partially
	// written file.
	WriteFile(path string, data []byte) error
	// Stdout receives the output of the text modes.
	Stdout() io.Writer
}

// FSWriter writes to the local filesystem.
type FSWriter struct {
	out io.Writer
}

// NewFSWriter returns a filesystem writer whose text output goes to out, or
// to os.Stdout when out is nil.
func NewFSWriter(out io.Writer) *FSWriter {
	if out == nil {
		out = os.Stdout
	}
	return &FSWriter{out: out}
}

func (w *FSWriter) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// WriteFile writes data to a temporary file next to path and renames it
// into place.
func (w *FSWriter) WriteFile(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func (w *FSWriter) Stdout() io.Writer {
	return w.out
}
