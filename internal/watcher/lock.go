package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/mvp-joe/phptdd/internal/settings"
)

// ErrAlreadyWatching is returned when another process holds the workspace lock.
var ErrAlreadyWatching = errors.New("another watcher is already running for this workspace")

// Lock allows one auto-run watcher per workspace.
type Lock struct {
	path string
	lock *flock.Flock
}

// NewLock creates the lock for a workspace root. Nothing is locked until
// Acquire.
func NewLock(root string) *Lock {
	return &Lock{path: filepath.Join(root, settings.Dir, "watch.lock")}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	l.lock = flock.New(l.path)
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrAlreadyWatching
	}
	return nil
}

// Release releases the lock (called on shutdown).
func (l *Lock) Release() error {
	if l.lock != nil {
		return l.lock.Unlock()
	}
	return nil
}
