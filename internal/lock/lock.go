// Package lock keeps two exports from writing into the same destination at once.
package lock

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/matheus3301/sigexport/internal/layout"
)

// Holder identifies the export that owns a destination.
type Holder struct {
	PID     int
	Started time.Time
}

func (h Holder) encode() string {
	return fmt.Sprintf("pid=%d\nstarted=%s\n", h.PID, h.Started.UTC().Format(time.RFC3339))
}

func readHolder(path string) Holder {
	var h Holder
	f, err := os.Open(path)
	if err != nil {
		return h
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, value, _ := strings.Cut(sc.Text(), "=")
		switch key {
		case "pid":
			h.PID, _ = strconv.Atoi(value)
		case "started":
			h.Started, _ = time.Parse(time.RFC3339, value)
		}
	}
	return h
}

// HeldError is returned when another export already owns the destination.
type HeldError struct {
	Holder
	Path string
}

func (e *HeldError) Error() string {
	if e.Started.IsZero() {
		return fmt.Sprintf("destination is being written by PID %d (%s)", e.PID, e.Path)
	}
	return fmt.Sprintf("destination is being written by PID %d since %s (%s)",
		e.PID, e.Started.Local().Format(time.DateTime), e.Path)
}

// Lock is an exclusive claim on an export destination.
type Lock struct {
	file *os.File
	path string
}

// Acquire claims dest for this process, creating the directory first. It fails with a
// *HeldError while another process holds the claim.
func Acquire(dest string) (*Lock, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	path := filepath.Join(dest, layout.LockFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, &HeldError{Holder: readHolder(path), Path: path}
	}

	me := Holder{PID: os.Getpid(), Started: time.Now()}
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	if _, err := f.WriteAt([]byte(me.encode()), 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{file: f, path: path}, nil
}

// Release gives up the claim and deletes the lock file so it does not end up in the
// export. It is safe on a nil or already released lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}
