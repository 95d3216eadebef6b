package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileLock serializes snapshot reads and writes across processes that
// share a snapshot path. The lock lives next to the snapshot as
// <snapshot>.lock.
type fileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newFileLock(snapshotPath string) *fileLock {
	p := snapshotPath + ".lock"
	return &fileLock{path: p, flock: flock.New(p)}
}

// lock blocks until the lock is held, creating the directory if needed.
func (l *fileLock) lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire snapshot lock: %w", err)
	}
	l.locked = true
	return nil
}

// tryLock takes the lock without blocking. It reports false when another
// process holds it.
func (l *fileLock) tryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire snapshot lock: %w", err)
	}
	l.locked = ok
	return ok, nil
}

// unlock is a no-op when the lock is not held.
func (l *fileLock) unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release snapshot lock: %w", err)
	}
	return nil
}
