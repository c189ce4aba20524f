// Package filelock guards test-case files against concurrent writers and
// keeps a single backup of the previous version.
package filelock

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// BackupSuffix is appended to a file path to name its backup copy.
const BackupSuffix = ".bak"

// LockSuffix is appended to a file path to name its lock file.
const LockSuffix = ".lock"

// FileLock wraps a flock lock file.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a lock backed by the file at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Lock blocks until the exclusive lock is held.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts the exclusive lock without blocking. It reports false
// when another process holds it.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// AtomicWrite replaces path with data through a temp file in the same
// directory and a rename, so readers see either the old or the new content.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
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
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	committed = true
	return nil
}

// Backup copies path to path+".bak", replacing any older backup.
// It reports false when path does not exist.
func Backup(path string) (bool, error) {
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open %s for backup: %w", path, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return false, fmt.Errorf("failed to read %s for backup: %w", path, err)
	}
	if err := AtomicWrite(path+BackupSuffix, data); err != nil {
		return false, err
	}
	return true, nil
}

// WriteWithBackup locks path, backs up the current file when one exists and
// atomically writes data. The lock file is path+".lock".
func WriteWithBackup(path string, data []byte) (backedUp bool, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}
	lock := NewFileLock(path + LockSuffix)
	if err := lock.Lock(); err != nil {
		return false, err
	}
	defer lock.Unlock()

	backedUp, err = Backup(path)
	if err != nil {
		return false, err
	}
	if err := AtomicWrite(path, data); err != nil {
		return backedUp, err
	}
	return backedUp, nil
}

// Restore replaces path with its backup. The backup is left in place.
func Restore(path string) error {
	data, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		return fmt.Errorf("no backup for %s: %w", path, err)
	}
	lock := NewFileLock(path + LockSuffix)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return AtomicWrite(path, data)
}
