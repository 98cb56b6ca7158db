// Package service implements supervision of the dictation backend worker.
//
// Overview
// The Supervisor owns at most one worker process. Start launches it, Stop kills
// and reaps it, Close is the teardown hook the host defers so the worker never
// outlives the host.
//
// Worker describes how the process is launched:
//   - the interpreter comes from $WORKER_BIN, falling back to the configured name
//     (python3 by default) resolved through $PATH
//   - a relative entry point is joined onto the resource root, which defaults to
//     the directory of the host executable
//   - stdout and stderr are captured through pipes, never inherited
//
// Data flow:
//
//   host                 Supervisor{mx}             process{cmd}
//     |                       |                          |
//     | Start(ctx) ---------->| Worker.Cmd()             |
//     |                       | spawn() ---------------->| exec.Cmd.Start
//     |                       |                          | drains (optional)
//     | Stop(ctx) ----------->| current = nil            |
//     |                       | terminate() ------------>| SIGKILL process group
//     |                       |<------- reaped ----------| Wait()
//     | Close() ------------->| Stop once, errors logged |
//
// Invariants:
//   - At most one process per Supervisor; Start while running returns
//     ErrAlreadyRunning and spawns nothing.
//   - Close is final: Start after it returns ErrClosed.
//   - Start, Stop and Close never interleave: the mutex is held for the whole
//     spawn and for the whole kill+wait.
//   - Stop clears the handle before signalling, so a failed termination still
//     leaves the Supervisor idle.
//   - Stop blocks until the worker is reaped unless a stop timeout is set.
//   - Output is read only when an OutputFunc is given. Without one the pipes stay
//     captured and unread.
//
// No error returned here is fatal to the host: ErrSpawnFailed means the host runs
// without a worker, ErrTerminationFailed means the worker might linger.
package service
