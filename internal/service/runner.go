package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/whisper-dictation/host/internal/log"
)

const maxLineSize = 1024 * 1024

type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// OutputFunc receives worker output line by line. It is called from the drain
// goroutines, one per stream.
type OutputFunc func(ctx context.Context, stream Stream, line string)

// LogOutput forwards worker output to slog, stderr at warn and stdout at debug.
func LogOutput(ctx context.Context, stream Stream, line string) {
	if stream == StreamStderr {
		slog.WarnContext(ctx, line, "stream", stream)
		return
	}
	slog.DebugContext(ctx, line, "stream", stream)
}

// process is a started worker. It is owned by exactly one Supervisor slot.
type process struct {
	id      string
	cmd     *exec.Cmd
	ctx     context.Context
	started time.Time
	drains  *errgroup.Group

	done    chan struct{}
	waitErr error
}

func spawn(ctx context.Context, proto Command, output OutputFunc) (*process, error) {
	cmd := exec.Command(proto.Path, proto.Args...)
	cmd.Env = proto.Env
	configureSysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, err
	}

	started := time.Now().UTC()
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	p := &process{
		id:      id,
		cmd:     cmd,
		started: started,
		done:    make(chan struct{}),
	}
	p.ctx = log.ContextAttrs(ctx, slog.Group("worker",
		slog.String("run", id),
		slog.Int("pid", cmd.Process.Pid),
	))

	if output != nil {
		p.drains = &errgroup.Group{}
		p.drains.Go(func() error {
			drain(p.ctx, StreamStdout, stdout, output)
			return nil
		})
		p.drains.Go(func() error {
			drain(p.ctx, StreamStderr, stderr, output)
			return nil
		})
	}
	return p, nil
}

func drain(ctx context.Context, stream Stream, r io.Reader, output OutputFunc) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		output(ctx, stream, scanner.Text())
	}
	err := scanner.Err()
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
		slog.ErrorContext(ctx, "processing worker output", "stream", stream, "error", err)
	}
	// keep the pipe empty so the worker never blocks on a full buffer
	_, _ = io.Copy(io.Discard, r)
}

func (p *process) pid() int {
	return p.cmd.Process.Pid
}

// wait reaps the process. Drains must hit EOF before Wait closes the pipes.
func (p *process) wait() {
	if p.drains != nil {
		_ = p.drains.Wait()
	}
	p.waitErr = p.cmd.Wait()
	close(p.done)
}

// terminate kills the worker and blocks until it is reaped. With grace > 0 a
// polite signal is tried first. With timeout > 0 the wait is bounded and the
// reaping continues in the background.
func (p *process) terminate(grace, timeout time.Duration) error {
	ctx := p.ctx
	go p.wait()

	if grace > 0 {
		if err := p.signal(false); err != nil {
			slog.DebugContext(ctx, "polite stop failed: killing", "error", err)
		} else {
			select {
			case <-p.done:
				p.logExit()
				return nil
			case <-time.After(grace):
				slog.WarnContext(ctx, "worker ignored stop request: killing", "grace_period", grace.String())
			}
		}
	}

	var killErr error
	if err := p.signal(true); err != nil {
		killErr = fmt.Errorf("%w: %w", ErrTerminationFailed, err)
	}

	if timeout <= 0 {
		<-p.done
	} else {
		select {
		case <-p.done:
		case <-time.After(timeout):
			return errors.Join(killErr, fmt.Errorf("%w: %w after %s", ErrTerminationFailed, ErrWaitTimeout, timeout))
		}
	}
	p.logExit()
	return killErr
}

func (p *process) logExit() {
	state := "unknown"
	if p.cmd.ProcessState != nil {
		state = p.cmd.ProcessState.String()
	}
	slog.InfoContext(p.ctx, "worker stopped",
		"state", state,
		"uptime", time.Since(p.started).Round(time.Millisecond).String(),
	)
	var exitErr *exec.ExitError
	if p.waitErr != nil && !errors.As(p.waitErr, &exitErr) {
		slog.WarnContext(p.ctx, "reaping worker", "error", p.waitErr)
	}
}
