package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// Scratch is a per-request temporary directory. Close removes it and everything in it.
type Scratch struct {
	dir string
}

// NewScratch creates a scratch directory under parent, or under the system temp
// directory when parent is empty.
func NewScratch(parent string) (*Scratch, error) {
	dir, err := os.MkdirTemp(parent, "docanalyzer-*")
	if err != nil {
		return nil, &models.SystemError{Op: "create scratch space", Err: err}
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the directory path.
func (s *Scratch) Dir() string { return s.dir }

// WriteFile stores data under name and returns its path.
func (s *Scratch) WriteFile(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", &models.SystemError{Op: "write scratch file", Err: fmt.Errorf("%s: %w", name, err)}
	}
	return path, nil
}

// Close removes the directory.
func (s *Scratch) Close() error {
	return os.RemoveAll(s.dir)
}
