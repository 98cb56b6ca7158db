// Package dispatch maps discrete UI events onto worker and window actions.
//
// The Dispatcher keeps no state of its own: a fixed table from Event to action,
// the Stopper used on the quit path and the Host that owns the window and the
// process exit.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
)

// Event identifies a UI event. Menu items use their ids, the tray uses
// EventTrayClick for a primary activation.
type Event string

const (
	EventShow      Event = "show"
	EventQuit      Event = "quit"
	EventTrayClick Event = "tray-click"
)

// ExitSuccess is the exit code requested on the quit path.
const ExitSuccess = 0

// Stopper stops the worker. It is satisfied by *service.Supervisor.
type Stopper interface {
	Stop(ctx context.Context) error
}

// Window is the host main window.
type Window interface {
	Show() error
	SetFocus() error
}

// Host is the application shell around the dispatcher.
type Host interface {
	// MainWindow returns false when there is no window to show.
	MainWindow() (Window, bool)
	Exit(code int)
}

type action func(ctx context.Context)

type Dispatcher struct {
	stopper Stopper
	host    Host
	actions map[Event]action
}

func New(stopper Stopper, host Host) *Dispatcher {
	d := &Dispatcher{
		stopper: stopper,
		host:    host,
	}
	d.actions = map[Event]action{
		EventQuit:      d.quit,
		EventShow:      d.show,
		EventTrayClick: d.show,
	}
	return d
}

// Dispatch runs the action bound to evt and reports whether evt is known.
// Unknown events are ignored. A panicking action is logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) (handled bool) {
	act, ok := d.actions[evt]
	if !ok {
		slog.DebugContext(ctx, "ignoring unknown ui event", "event", evt)
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "ui event action panicked", "event", evt, "panic", fmt.Sprint(r))
		}
	}()
	slog.DebugContext(ctx, "dispatching ui event", "event", evt)
	handled = true
	act(ctx)
	return handled
}

// Events returns the events the dispatcher recognizes.
func (d *Dispatcher) Events() []Event {
	events := make([]Event, 0, len(d.actions))
	for evt := range d.actions {
		events = append(events, evt)
	}
	return events
}

// quit stops the worker before asking the host to exit. A failed or panicking
// stop never blocks the exit.
func (d *Dispatcher) quit(ctx context.Context) {
	defer d.host.Exit(ExitSuccess)
	if d.stopper == nil {
		return
	}
	if err := d.stopper.Stop(ctx); err != nil {
		slog.WarnContext(ctx, "stopping worker on quit", "error", err)
	}
}

func (d *Dispatcher) show(ctx context.Context) {
	w, ok := d.host.MainWindow()
	if !ok || w == nil {
		slog.DebugContext(ctx, "no main window to show")
		return
	}
	if err := w.Show(); err != nil {
		slog.DebugContext(ctx, "showing main window", "error", err)
	}
	if err := w.SetFocus(); err != nil {
		slog.DebugContext(ctx, "focusing main window", "error", err)
	}
}
