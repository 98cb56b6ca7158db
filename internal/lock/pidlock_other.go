//go:build !unix

package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PIDLock on platforms without flock(2) is an exclusively created PID file.
// A crashed host leaves the file behind; Acquire removes it when the recorded
// process is gone.
type PIDLock struct {
	path string
	f    *os.File
}

func Acquire(path string) (*PIDLock, error) {
	if path == "" {
		return nil, errors.New("lock path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	for range 2 {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
				_ = f.Close()
				_ = os.Remove(path)
				return nil, fmt.Errorf("write pid: %w", err)
			}
			return &PIDLock{path: path, f: f}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("open lock file: %w", err)
		}
		r, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open lock file: %w", err)
		}
		held := holder(path, r)
		_ = r.Close()
		var he *HeldError
		if errors.As(held, &he) && he.Alive {
			return nil, held
		}
		_ = os.Remove(path)
	}
	return nil, fmt.Errorf("acquire lock: %w", ErrLocked)
}

func (l *PIDLock) Path() string { return l.path }

func (l *PIDLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return errors.Join(err, os.Remove(l.path))
}
