package mutex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileMutexAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")
	m := NewFileMutex(path, time.Second, 10*time.Millisecond, 0)

	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file should exist: %v", err)
	}

	if err := m.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("lock file should be gone, stat err = %v", err)
	}
}

func TestFileMutexContendedTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	holder := NewFileMutex(path, time.Second, 10*time.Millisecond, 0)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer func() { _ = holder.Release() }()

	waiter := NewFileMutex(path, 50*time.Millisecond, 10*time.Millisecond, 0)
	err := waiter.Acquire(context.Background())
	if !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("error = %v, want ErrNotAcquired", err)
	}
}

func TestFileMutexAcquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	first := NewFileMutex(path, time.Second, 10*time.Millisecond, 0)
	if err := first.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	second := NewFileMutex(path, time.Second, 10*time.Millisecond, 0)
	done := make(chan error, 1)
	go func() { done <- second.Acquire(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	_ = second.Release()
}

func TestFileMutexReclaimsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	if err := os.WriteFile(path, []byte("12345\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	m := NewFileMutex(path, time.Second, 10*time.Millisecond, time.Minute)
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() should reclaim stale lock: %v", err)
	}
	_ = m.Release()
}

func TestFileMutexRespectsCallerDeadline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	holder := NewFileMutex(path, 0, 10*time.Millisecond, 0)
	if err := holder.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer func() { _ = holder.Release() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	waiter := NewFileMutex(path, time.Hour, 10*time.Millisecond, 0)
	if err := waiter.Acquire(ctx); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("error = %v, want ErrNotAcquired", err)
	}
}

func TestNoop(t *testing.T) {
	var m Mutex = Noop{}
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := m.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}
