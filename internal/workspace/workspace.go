package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/bdeep/internal/foundation/errors"
	"git.home.luguber.info/inful/bdeep/internal/logfields"
)

// DefaultRoot is the projects root used when none is configured.
const DefaultRoot = "projects"

// Manager resolves and maintains working copy directories under a projects root.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at root (DefaultRoot when empty).
func NewManager(root string) *Manager {
	if root == "" {
		root = DefaultRoot
	}
	return &Manager{root: filepath.Clean(root)}
}

// Root returns the projects root.
func (m *Manager) Root() string { return m.root }

// Create ensures the projects root exists.
func (m *Manager) Create() error {
	if err := MakePath(m.root); err != nil {
		return err
	}
	slog.Debug("Using projects root", logfields.Path(m.root))
	return nil
}

// WorkingCopyPath returns the deterministic checkout path for a job/mode pair.
func (m *Manager) WorkingCopyPath(mode, job string) string {
	return filepath.Join(m.root, mode, job)
}

// Remove deletes a working copy tree. Paths outside the root are refused.
func (m *Manager) Remove(path string) error {
	rel, err := filepath.Rel(m.root, filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.FileSystemError("refusing to remove path outside projects root").
			WithContext("path", path).
			WithContext("root", m.root).
			Build()
	}
	if err := os.RemoveAll(path); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to remove working copy").
			WithContext("path", path).
			Build()
	}
	slog.Info("Removed working copy", logfields.Path(path))
	return nil
}
