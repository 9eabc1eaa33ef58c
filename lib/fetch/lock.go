package fetch

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const lockName = ".walland.lock"

// Lock is an exclusive advisory lock on a download directory.
type Lock struct {
	file *os.File
}

// LockDir blocks until it holds the lock for dir, creating dir if needed.
// Runs sharing a directory write the same per-day filenames, so they take
// turns instead of interleaving writes.
func LockDir(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating directory [%s]: %w", dir, err)
	}

	f, err := os.OpenFile(filepath.Join(dir, lockName), os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return &Lock{file: f}, nil
}

// TryLockDir is LockDir without blocking. It reports false when another
// process holds the lock.
func TryLockDir(dir string) (*Lock, bool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, false, fmt.Errorf("error creating directory [%s]: %w", dir, err)
	}

	f, err := os.OpenFile(filepath.Join(dir, lockName), os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open lock file: %w", err)
	}

	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		f.Close()
		return nil, false, nil
	}
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return &Lock{file: f}, true, nil
}

// Unlock releases the lock. The lock file stays for the next run.
func (l *Lock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}
