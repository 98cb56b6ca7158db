// Package lock keeps a single host instance per user.
package lock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

var ErrLocked = errors.New("another instance is running")

// HeldError describes the process holding a lock. PID is zero when the lock
// file does not name one.
type HeldError struct {
	Path  string
	PID   int32
	Name  string
	Alive bool
}

func (e *HeldError) Error() string {
	switch {
	case e.PID == 0:
		return fmt.Sprintf("%s: lock %s", ErrLocked, e.Path)
	case e.Name != "":
		return fmt.Sprintf("%s: pid %d (%s) holds %s", ErrLocked, e.PID, e.Name, e.Path)
	default:
		return fmt.Sprintf("%s: pid %d holds %s", ErrLocked, e.PID, e.Path)
	}
}

func (e *HeldError) Unwrap() error { return ErrLocked }

// holder reads the PID recorded in a held lock file and looks it up in the
// process table.
func holder(path string, r io.ReadSeeker) error {
	he := &HeldError{Path: path}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return he
	}
	b, err := io.ReadAll(io.LimitReader(r, 64))
	if err != nil {
		return he
	}
	pid, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 32)
	if err != nil || pid <= 0 {
		return he
	}
	he.PID = int32(pid)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	he.Alive, _ = process.PidExistsWithContext(ctx, he.PID)
	if !he.Alive {
		return he
	}
	if p, err := process.NewProcessWithContext(ctx, he.PID); err == nil {
		he.Name, _ = p.NameWithContext(ctx)
	}
	return he
}
