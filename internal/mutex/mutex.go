// Package mutex provides the advisory lock guarding datastore writes.
//
// The store assumes at most one writer holds the lock for the duration of
// "read file, mutate in memory, write file". Readers may observe the pre- or
// post-mutation file, never a partial one (the store writes atomically).
package mutex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrNotAcquired is returned when the lock could not be obtained before the
// context expired. Fatal for the mutating operation; never retried silently.
var ErrNotAcquired = errors.New("lock not acquired")

// Mutex is the advisory lock collaborator.
type Mutex interface {
	Acquire(ctx context.Context) error
	Release() error
}

// FileMutex implements Mutex with an exclusive lock file created O_EXCL.
// A stale lock file (older than StaleAfter) is broken, since a crashed
// process cannot release its lock.
type FileMutex struct {
	path       string
	timeout    time.Duration
	retryEvery time.Duration
	staleAfter time.Duration
}

// NewFileMutex creates a lock at path. timeout bounds each Acquire when the
// caller's context has no deadline of its own; retryEvery is the polling
// interval while the lock is held elsewhere; staleAfter is the age at which
// an orphaned lock file is reclaimed (0 disables reclaiming).
func NewFileMutex(path string, timeout, retryEvery, staleAfter time.Duration) *FileMutex {
	if retryEvery <= 0 {
		retryEvery = 50 * time.Millisecond
	}
	return &FileMutex{path: path, timeout: timeout, retryEvery: retryEvery, staleAfter: staleAfter}
}

func (m *FileMutex) Acquire(ctx context.Context) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	for {
		f, err := os.OpenFile(m.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			return f.Close()
		}
		if !os.IsExist(err) {
			return fmt.Errorf("%w: %v", ErrNotAcquired, err)
		}

		m.reclaimStale()

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotAcquired, ctx.Err())
		case <-time.After(m.retryEvery):
		}
	}
}

func (m *FileMutex) Release() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (m *FileMutex) reclaimStale() {
	if m.staleAfter <= 0 {
		return
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return
	}
	if time.Since(info.ModTime()) > m.staleAfter {
		_ = os.Remove(m.path)
	}
}

// Noop is a Mutex that always succeeds. Used in tests and single-process
// setups where no other writer exists.
type Noop struct{}

func (Noop) Acquire(context.Context) error { return nil }
func (Noop) Release() error                { return nil }
