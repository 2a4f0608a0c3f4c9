package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another process holds the data directory lock.
var ErrLocked = errors.New("data directory is locked by another czar process")

const lockFileName = ".lock"

// Lock is an exclusive advisory lock on a data directory.
type Lock struct {
	file *os.File
}

// AcquireLock takes a non-blocking exclusive flock on dir/.lock.
// Returns ErrLocked if the lock is already held.
func AcquireLock(dir string) (*Lock, error) {
	if dir == "" {
		return nil, ErrEmptyDataDir
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, lockFileName), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to lock data directory: %w", err)
	}

	return &Lock{file: f}, nil
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	closeErr := f.Close()
	if unlockErr != nil {
		return fmt.Errorf("failed to unlock data directory: %w", unlockErr)
	}
	return closeErr
}
