package rulesetfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	logpkg "github.com/haukened/nfblock/internal/nfblock/common/log"
	"github.com/haukened/nfblock/internal/nfblock/domain"
	"github.com/haukened/nfblock/internal/nfblock/repos/ruleset"
)

// FileMode is the permission of a generated ruleset file.
const FileMode os.FileMode = 0o644

// Error message constants for consistent error handling
const (
	errCreateTemp = "create temp file in %s: %w"
	errWrite      = "write %s: %w"
	errSync       = "sync %s: %w"
	errClose      = "close %s: %w"
	errChmod      = "chmod %s: %w"
	errRename     = "rename %s to %s: %w"
	errOpen       = "open ruleset file: %w"
)

// Store writes and reads the generated ruleset file at a fixed path.
type Store struct {
	path   string
	logger logpkg.Logger
}

// New returns a Store for path.
func New(path string, logger logpkg.Logger) *Store {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	return &Store{path: path, logger: logger}
}

// WriteLines replaces the destination with lines, one statement per line.
// The content goes to a temporary file in the same directory which is synced
// and renamed over the destination. On failure the previous file is untouched.
func (s *Store) WriteLines(lines []string) (err error) {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf(errCreateTemp, dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = ruleset.Write(tmp, lines); err != nil {
		return fmt.Errorf(errWrite, tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf(errSync, tmpName, err)
	}
	if err = tmp.Chmod(FileMode); err != nil {
		return fmt.Errorf(errChmod, tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf(errClose, tmpName, err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf(errRename, tmpName, s.path, err)
	}

	s.logger.Info(map[string]any{"path": s.path, "statements": len(lines)}, "ruleset_written")
	return nil
}

// Open opens the destination for reading. A missing file is a configuration
// error; errors.Is(err, fs.ErrNotExist) still holds.
func (s *Store) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: "+errOpen, domain.ErrConfig, err)
	}
	return f, nil
}
