package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/whisper-dictation/host/internal/model"
)

// Supervisor owns zero or one worker process.
type Supervisor struct {
	worker      Worker
	output      OutputFunc
	grace       time.Duration
	stopTimeout time.Duration

	mx      sync.Mutex
	current *process
	closed  bool

	closeOnce sync.Once
}

type Option func(*Supervisor)

// WithOutput drains worker stdout and stderr into fn. Without it the streams
// are captured but left unread.
func WithOutput(fn OutputFunc) Option {
	return func(s *Supervisor) {
		s.output = fn
	}
}

// WithGracePeriod makes Stop send a polite signal and wait d before killing.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) {
		s.grace = d
	}
}

// WithStopTimeout bounds how long Stop waits for the killed worker to be reaped.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		s.stopTimeout = d
	}
}

func NewSupervisor(worker Worker, opts ...Option) *Supervisor {
	s := &Supervisor{worker: worker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SupervisorFromConfig builds a Supervisor for the worker section of a config.
func SupervisorFromConfig(cfg model.Worker) *Supervisor {
	opts := []Option{
		WithGracePeriod(cfg.GracePeriod.Std()),
		WithStopTimeout(cfg.StopTimeout.Std()),
	}
	if cfg.Capture != model.CaptureHold {
		opts = append(opts, WithOutput(LogOutput))
	}
	return NewSupervisor(WorkerFromConfig(cfg), opts...)
}

// Start launches the worker. It returns ErrClosed after Close, ErrAlreadyRunning
// if a worker is held, or an error wrapping ErrSpawnFailed if the OS refused to
// create it. ctx only carries log attributes: cancelling it does not touch the
// worker.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.current != nil {
		return ErrAlreadyRunning
	}

	cmd, err := s.worker.Cmd()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	p, err := spawn(ctx, cmd, s.output)
	if err != nil {
		slog.DebugContext(ctx, "worker spawn failed", "path", cmd.Path, "args", cmd.Args, "error", err)
		return fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}
	s.current = p
	slog.InfoContext(p.ctx, "worker started", "path", cmd.Path, "args", cmd.Args)
	return nil
}

// Stop kills the worker and waits until it is reaped. Without a worker it is a
// no-op. The handle is released before the kill, so the Supervisor is idle on
// return even when the error wraps ErrTerminationFailed.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	p := s.current
	s.current = nil
	if p == nil {
		slog.DebugContext(ctx, "no worker to stop")
		return nil
	}
	slog.DebugContext(p.ctx, "stopping worker")
	return p.terminate(s.grace, s.stopTimeout)
}

// Close stops the worker exactly once and swallows the error. The host defers
// it so every exit path releases the worker. A closed Supervisor refuses Start.
func (s *Supervisor) Close() error {
	s.closeOnce.Do(func() {
		s.mx.Lock()
		s.closed = true
		s.mx.Unlock()

		ctx := context.Background()
		if err := s.Stop(ctx); err != nil {
			slog.WarnContext(ctx, "stopping worker on teardown", "error", err)
		}
	})
	return nil
}

func (s *Supervisor) Running() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.current != nil
}

// PID returns the worker process id, 0 when idle.
func (s *Supervisor) PID() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.current == nil {
		return 0
	}
	return s.current.pid()
}
