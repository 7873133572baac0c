package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	lockFileSuffix = ".lock"
)

// LedgerLock manages a file-based lock for the SQLite run ledger.
type LedgerLock struct {
	lock *flock.Flock
	path string
}

// NewLedgerLock creates a new lock for the given ledger path.
func NewLedgerLock(ledgerPath string) (*LedgerLock, error) {
	absPath, err := GetAbsLedgerPath(ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("could not get absolute ledger path: %w", err)
	}
	lockPath := absPath + lockFileSuffix
	return &LedgerLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

// Lock acquires the ledger lock, waiting if necessary.
// It will print a message if it has to wait.
func (l *LedgerLock) Lock() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another starload process is writing to the ledger, waiting for it to finish...\n")
		if err := l.lock.Lock(); err != nil {
			return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
		}
	}
	return nil
}

// Unlock releases the ledger lock.
func (l *LedgerLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// GetAbsLedgerPath resolves the ledger path.
func GetAbsLedgerPath(ledgerPath string) (string, error) {
	if ledgerPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "starload", "starload.sqlite"), nil
	}
	return filepath.Abs(ledgerPath)
}
