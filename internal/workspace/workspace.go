// Package workspace manages the temporary directory an analysis runs in.
// Each analysis gets its own directory, locked for exclusive use and removed
// unconditionally when the analysis ends.
package workspace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Workspace is one analysis directory. RepoDir is where the repository is
// cloned; the lock file lives next to it so the checkout stays pristine.
type Workspace struct {
	ID      string
	Path    string
	RepoDir string

	lock *flock.Flock
}

// Manager creates and destroys workspaces under a root directory.
type Manager struct {
	// Root is the parent directory for workspaces. Empty means the
	// system temp directory.
	Root string
}

// Acquire creates a fresh workspace directory and takes an exclusive flock
// on it. The file walks and command executions downstream assume nothing
// else touches the tree, so a lock that cannot be acquired is an error, not
// a wait.
func (m *Manager) Acquire() (*Workspace, error) {
	root := m.Root
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(root, "analysis-"+id)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	lock := flock.New(filepath.Join(path, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("locking workspace: %w", err)
	}
	if !locked {
		_ = os.RemoveAll(path)
		return nil, fmt.Errorf("workspace %s is already locked", path)
	}

	return &Workspace{
		ID:      id,
		Path:    path,
		RepoDir: filepath.Join(path, "repo"),
		lock:    lock,
	}, nil
}

// Detach unlocks the workspace without deleting it, for callers that want
// to keep the checkout around for inspection.
func (w *Workspace) Detach() {
	if w.lock != nil {
		if err := w.lock.Unlock(); err != nil {
			slog.Debug("workspace unlock failed", "path", w.Path, "err", err)
		}
		w.lock = nil
	}
}

// Release unlocks and deletes the workspace tree. It must run on every
// exit path of an analysis, including fatal ones. Removal tolerates
// read-only files left behind by checkouts: when the first removal fails,
// write permission is restored across the tree and removal retried.
func (w *Workspace) Release() error {
	if w.lock != nil {
		if err := w.lock.Unlock(); err != nil {
			slog.Debug("workspace unlock failed", "path", w.Path, "err", err)
		}
	}

	err := os.RemoveAll(w.Path)
	if err == nil {
		return nil
	}

	clearReadOnly(w.Path)
	if err := os.RemoveAll(w.Path); err != nil {
		return fmt.Errorf("removing workspace %s: %w", w.Path, err)
	}
	return nil
}

// clearReadOnly makes every entry under root writable so RemoveAll can
// delete it. Errors are ignored; the retry's failure is the one reported.
func clearReadOnly(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = os.Chmod(path, 0755)
		} else {
			_ = os.Chmod(path, 0644)
		}
		return nil
	})
}
