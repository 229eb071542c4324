package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
	lockRetryDelay = 250 * time.Millisecond
)

// ErrLockBusy is returned when ctx ends before the lock is free.
var ErrLockBusy = errors.New("database is locked by another m72 process (is `m72 serve` running?)")

// DBLock serializes writers of the same SQLite file across processes.
type DBLock struct {
	lock *flock.Flock
	path string
}

// NewDBLock creates a new lock for the given database path.
func NewDBLock(dbPath string) (*DBLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute db path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &DBLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the database lock. When another process holds it, Lock
// polls until the lock is released or ctx is done.
func (l *DBLock) Lock(ctx context.Context) error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if locked {
		return nil
	}

	Log.Warnf("Another m72 process is writing to the database, waiting for it to finish...")
	locked, err = l.lock.TryLockContext(ctx, lockRetryDelay)
	if !locked {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: gave up waiting for %s", ErrLockBusy, l.path)
		}
		return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
	}
	return nil
}

// Unlock releases the database lock.
func (l *DBLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// GetAbsDBPath resolves the database path. An empty path means
// ~/.config/m72/m72.sqlite.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "m72", "m72.sqlite"), nil
	}
	return filepath.Abs(dbPath)
}
