package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	merrors "github.com/Aman-CERP/memex/internal/errors"
)

// DestinationLock is an exclusive cross-process lock on an index
// destination, held in the sibling file <destination>.lock.
type DestinationLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// LockDestination takes the lock without blocking. A lock held by another
// process is reported as ERR_207_INDEX_LOCKED.
func LockDestination(destination string) (*DestinationLock, error) {
	lockPath := filepath.Clean(destination) + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	l := &DestinationLock{path: lockPath, flock: flock.New(lockPath)}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", lockPath, err)
	}
	if !acquired {
		return nil, merrors.New(merrors.ErrCodeIndexLocked,
			fmt.Sprintf("index %s is being built by another process", destination), nil).
			WithDetail("lock", lockPath)
	}
	l.locked = true
	return l, nil
}

// Path returns the lock file path.
func (l *DestinationLock) Path() string {
	return l.path
}

// Unlock releases the lock. It is safe to call more than once.
func (l *DestinationLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
