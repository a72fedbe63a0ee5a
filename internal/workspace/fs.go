package workspace

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
)

// MakePath creates path and any missing parents. An existing directory is not an error.
func MakePath(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create directory").
			WithContext("path", path).
			Fatal().
			Build()
	}
	return nil
}

// WriteFile replaces path with content. The data is written to a hidden
// temporary file in the same directory and renamed over the target, so readers
// never observe a partially written file.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return writeError(err, path, "create temporary file")
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return writeError(err, path, "write temporary file")
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return writeError(err, path, "chmod temporary file")
	}
	if err := tmp.Close(); err != nil {
		return writeError(err, path, "close temporary file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return writeError(err, path, "rename into place")
	}
	return nil
}

func writeError(err error, path, step string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, "failed to write file").
		WithContext("path", path).
		WithContext("step", step).
		Build()
}
