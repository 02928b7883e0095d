// Package filelock coordinates report and history writes across concurrent
// harness invocations. Locking is cross-process via flock; writes are
// atomic via a temp-file-and-rename strategy so readers never observe a
// partially written report.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// WithLock acquires an exclusive lock derived from path (path + ".lock"),
// runs fn, and releases the lock. The lock file is left in place for reuse.
func WithLock(path string, fn func() error) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	defer lock.Unlock()
	return fn()
}

// TryWithLock is the non-blocking variant of WithLock. It returns false
// without running fn when another invocation holds the lock.
func TryWithLock(path string, fn func() error) (bool, error) {
	lock := flock.New(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", path, err)
	}
	if !acquired {
		return false, nil
	}
	defer lock.Unlock()
	return true, fn()
}

// AtomicWrite writes data to path through a temp file in the same
// directory followed by a rename. Parent directories are created as
// needed. On failure the existing file, if any, is left unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Rename is atomic within one filesystem, which CreateTemp in the
	// target directory guarantees.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}

// LockAndWrite performs an atomic write while holding the path's lock.
func LockAndWrite(path string, data []byte) error {
	return WithLock(path, func() error {
		return AtomicWrite(path, data)
	})
}
