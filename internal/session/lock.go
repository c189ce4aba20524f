package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/casegen/internal/filelock"
)

// ErrBusy is returned when another operation already holds a work item.
var ErrBusy = errors.New("another operation is in progress for this work item")

// Lock marks a work item busy for the duration of one operation.
type Lock struct {
	fl *filelock.FileLock
}

// Acquire takes the busy lock for workItemID under dir without waiting.
// A second caller gets an error wrapping ErrBusy.
func Acquire(dir string, workItemID int) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := filelock.NewFileLock(filepath.Join(dir, fmt.Sprintf("PBI-%d.lock", workItemID)))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("work item %d: %w", workItemID, ErrBusy)
	}
	return &Lock{fl: fl}, nil
}

// Release frees the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
