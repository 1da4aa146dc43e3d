// Package adapter contains the codec and infrastructure services the mutation
// core delegates to: binary module encoding, debug symbols, tree copying,
// test-tree loading and the external test harness.
package adapter

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// WriteFileAtomic streams content produced by write into a temporary file next
// to path and renames it into place once write and Close succeeded. On any
// failure the temporary file is removed and path is left untouched.
func WriteFileAtomic(fs afero.Fs, path m.Path, write func(w io.Writer) error) error {
	dir := filepath.Dir(string(path))
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+path.Base()+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		if err := fs.Remove(tmp.Name()); err != nil {
			slog.Warn("failed to remove temp file", "path", tmp.Name(), "error", err)
		}
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := fs.Rename(tmp.Name(), string(path)); err != nil {
		return fmt.Errorf("failed to move temp file into place: %w", err)
	}

	committed = true

	slog.Debug("wrote file", "path", path)

	return nil
}

// FileExists reports whether a regular file exists at path.
func FileExists(fs afero.Fs, path m.Path) (bool, error) {
	info, err := fs.Stat(string(path))
	if err != nil {
		exists, existsErr := afero.Exists(fs, string(path))
		if existsErr != nil {
			return false, existsErr
		}

		if !exists {
			return false, nil
		}

		return false, err
	}

	return !info.IsDir(), nil
}
