// Package workspace manages per-run build workspaces. Each run gets a
// timestamped directory that is removed on cleanup unless the
// configuration asks to keep it for inspection.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/relbuilder/internal/logfields"
)

// Manager handles workspace directory lifecycle for a single run.
type Manager struct {
	baseDir string
	dir     string
	keep    bool
}

// NewManager creates a workspace manager. An empty baseDir falls back to
// the system temp directory.
func NewManager(baseDir string, keep bool) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, keep: keep}
}

// Create creates a timestamped workspace directory.
func (m *Manager) Create() error {
	timestamp := time.Now().Format("20060102-150405")
	dir := filepath.Join(m.baseDir, fmt.Sprintf("relbuilder-%s", timestamp))

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.dir = dir
	slog.Info("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory path ("" before Create).
func (m *Manager) Path() string {
	return m.dir
}

// RepoPath returns the checkout location for the named repository.
func (m *Manager) RepoPath(name string) string {
	return filepath.Join(m.dir, name)
}

// Cleanup removes the workspace directory unless keep is set.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.keep {
		slog.Info("Keeping workspace", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to remove workspace: %w", err)
	}
	slog.Debug("Removed workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
