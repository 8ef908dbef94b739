package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StageFile writes to a synced temp file in the directory of path and
// returns the temp file's name. The caller renames it into place or
// removes it.
func StageFile(path string, write func(io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", err
	}

	if err := write(tmp); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("sync temp: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp: %w", err)
	}
	return tmpName, nil
}

// WriteFileAtomic stages the content and renames it over path, so readers
// see either the old file or the complete new one.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	tmpName, err := StageFile(path, write)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
	}
	return nil
}
