package service_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/whisper-dictation/host/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// shWorker writes body into an entry script run by sh.
func shWorker(t *testing.T, body string) service.Worker {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	dir := t.TempDir()
	entry := "worker.sh"
	err = os.WriteFile(filepath.Join(dir, entry), []byte(body+"\n"), 0o644)
	require.NoError(t, err)
	return service.Worker{
		Interpreter: sh,
		Entry:       entry,
		ResourceDir: dir,
	}
}

func pidExists(t *testing.T, pid int) bool {
	t.Helper()
	ok, err := process.PidExistsWithContext(t.Context(), int32(pid))
	require.NoError(t, err)
	return ok
}

// dead reports whether pid is gone or only a zombie.
func dead(t *testing.T, pid int) bool {
	t.Helper()
	if !pidExists(t, pid) {
		return true
	}
	proc, err := process.NewProcessWithContext(t.Context(), int32(pid))
	if err != nil {
		return true
	}
	status, err := proc.StatusWithContext(t.Context())
	if err != nil {
		return false
	}
	return slices.Contains(status, process.Zombie)
}

func requireGone(t *testing.T, pid int) {
	t.Helper()
	require.NotZero(t, pid)
	require.False(t, pidExists(t, pid), "worker %d still in the process table", pid)
}

func stopOnCleanup(t *testing.T, s *service.Supervisor) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
}
