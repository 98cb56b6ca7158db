package lock_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whisper-dictation/host/internal/lock"
)

func TestAcquireWritesPID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dictation.lock")
	l, err := lock.Acquire(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })
	require.Equal(t, path, l.Path())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(b)))
}

func TestAcquireHeld(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dictation.lock")
	first, err := lock.Acquire(path)
	require.NoError(t, err)

	_, err = lock.Acquire(path)
	require.ErrorIs(t, err, lock.ErrLocked)
	var held *lock.HeldError
	require.True(t, errors.As(err, &held))
	require.Equal(t, int32(os.Getpid()), held.PID)
	require.True(t, held.Alive)
	require.Contains(t, err.Error(), strconv.Itoa(os.Getpid()))

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())

	second, err := lock.Acquire(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestAcquireEmptyPath(t *testing.T) {
	t.Parallel()
	_, err := lock.Acquire("")
	require.Error(t, err)
	require.NotErrorIs(t, err, lock.ErrLocked)
}

func TestHeldErrorMessage(t *testing.T) {
	t.Parallel()
	tcs := []struct {
		err  *lock.HeldError
		want string
	}{
		{&lock.HeldError{Path: "/x.lock"}, "another instance is running: lock /x.lock"},
		{&lock.HeldError{Path: "/x.lock", PID: 42}, "another instance is running: pid 42 holds /x.lock"},
		{&lock.HeldError{Path: "/x.lock", PID: 42, Name: "dictation"}, "another instance is running: pid 42 (dictation) holds /x.lock"},
	}
	for _, tc := range tcs {
		require.EqualError(t, tc.err, tc.want)
	}
}
