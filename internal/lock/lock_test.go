package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/sigexport/internal/layout"
)

func TestAcquireAndRelease(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "export")

	l, err := Acquire(dest)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, layout.LockFile))
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if len(data) == 0 {
		t.Error("lock file is empty")
	}

	if err := l.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, layout.LockFile)); !os.IsNotExist(err) {
		t.Errorf("lock file still present after Release: %v", err)
	}
}

func TestDoubleAcquireFails(t *testing.T) {
	dest := t.TempDir()

	l1, err := Acquire(dest)
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer func() { _ = l1.Release() }()

	_, err = Acquire(dest)
	if err == nil {
		t.Fatal("second Acquire() should fail")
	}

	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected HeldError, got %T: %v", err, err)
	}
	if held.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", held.PID, os.Getpid())
	}
	if held.Started.IsZero() {
		t.Error("Started not read back from the lock file")
	}
}

func TestReadHolderMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	if err := os.WriteFile(path, []byte("garbage\npid=x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if h := readHolder(path); h != (Holder{}) {
		t.Errorf("readHolder() = %+v, want zero", h)
	}
	if h := readHolder(filepath.Join(t.TempDir(), "missing")); h != (Holder{}) {
		t.Errorf("readHolder(missing) = %+v, want zero", h)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	l, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := l.Release(); err != nil {
		t.Errorf("first Release() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}
