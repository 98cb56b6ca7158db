// Package shell is the application host around the dispatcher: it owns the
// main window, runs the UI loop and records the exit code requested by the
// quit path.
package shell

import (
	"context"
	"log/slog"
	"sync"

	"github.com/whisper-dictation/host/internal/dispatch"
	"github.com/whisper-dictation/host/internal/tray"
)

type Shell struct {
	window dispatch.Window

	mx     sync.Mutex
	onExit func()
	code   int

	exitOnce sync.Once
	done     chan struct{}
}

// New returns a Shell. A nil window means there is no main window.
func New(window dispatch.Window) *Shell {
	return &Shell{
		window: window,
		done:   make(chan struct{}),
	}
}

func (s *Shell) MainWindow() (dispatch.Window, bool) {
	return s.window, s.window != nil
}

// Exit records code and ends the UI loop. Only the first call counts.
func (s *Shell) Exit(code int) {
	s.exitOnce.Do(func() {
		s.mx.Lock()
		s.code = code
		onExit := s.onExit
		s.mx.Unlock()

		close(s.done)
		if onExit != nil {
			onExit()
		}
	})
}

// Done is closed once Exit has been called.
func (s *Shell) Done() <-chan struct{} {
	return s.done
}

func (s *Shell) Code() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.code
}

func (s *Shell) setOnExit(fn func()) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.onExit = fn
}

// RunHeadless blocks until Exit is called. Cancelling ctx, typically on
// SIGINT or SIGTERM, is delivered as the quit event.
func (s *Shell) RunHeadless(ctx context.Context, d *dispatch.Dispatcher) int {
	go s.quitOnCancel(ctx, d)
	<-s.done
	return s.Code()
}

// Tray is the UI loop driven by RunTray.
type Tray interface {
	// Run blocks until Quit is called.
	Run(opts tray.Options)
	Quit()
}

// RunTray shows the tray and blocks until the tray goes away. Menu and icon
// clicks go through d, as does cancellation of ctx, also before the tray is
// ready.
func (s *Shell) RunTray(ctx context.Context, d *dispatch.Dispatcher, t Tray, opts tray.Options) int {
	s.setOnExit(t.Quit)
	opts.OnEvent = func(evt dispatch.Event) {
		d.Dispatch(ctx, evt)
	}
	opts.OnReady = func() {
		slog.InfoContext(ctx, "tray ready")
		// Exit may have come first, when Quit had no tray to remove
		select {
		case <-s.done:
			t.Quit()
		default:
		}
	}
	go s.quitOnCancel(ctx, d)
	t.Run(opts)
	return s.Code()
}

func (s *Shell) quitOnCancel(ctx context.Context, d *dispatch.Dispatcher) {
	select {
	case <-s.done:
	case <-ctx.Done():
		slog.InfoContext(ctx, "quit requested", "cause", context.Cause(ctx))
		d.Dispatch(context.WithoutCancel(ctx), dispatch.EventQuit)
	}
}
