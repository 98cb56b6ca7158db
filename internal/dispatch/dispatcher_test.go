package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whisper-dictation/host/internal/dispatch"
	"github.com/whisper-dictation/host/internal/service"
)

// journal records calls across fakes in order.
type journal struct {
	mx    sync.Mutex
	calls []string
}

func (j *journal) add(call string) {
	j.mx.Lock()
	defer j.mx.Unlock()
	j.calls = append(j.calls, call)
}

func (j *journal) list() []string {
	j.mx.Lock()
	defer j.mx.Unlock()
	return append([]string(nil), j.calls...)
}

type fakeStopper struct {
	j     *journal
	err   error
	panic bool
}

func (s fakeStopper) Stop(context.Context) error {
	s.j.add("stop")
	if s.panic {
		panic("stop exploded")
	}
	return s.err
}

type fakeWindow struct {
	j   *journal
	err error
}

func (w fakeWindow) Show() error {
	w.j.add("show")
	return w.err
}

func (w fakeWindow) SetFocus() error {
	w.j.add("focus")
	return w.err
}

type fakeHost struct {
	j      *journal
	window dispatch.Window
	codes  []int
}

func (h *fakeHost) MainWindow() (dispatch.Window, bool) {
	return h.window, h.window != nil
}

func (h *fakeHost) Exit(code int) {
	h.j.add("exit")
	h.codes = append(h.codes, code)
}

func TestQuit(t *testing.T) {
	t.Parallel()
	tcs := []struct {
		name    string
		stopper fakeStopper
	}{
		{"stop ok", fakeStopper{}},
		{"stop error", fakeStopper{err: service.ErrTerminationFailed}},
		{"stop panic", fakeStopper{panic: true}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			j := &journal{}
			tc.stopper.j = j
			host := &fakeHost{j: j}
			d := dispatch.New(tc.stopper, host)

			handled := d.Dispatch(t.Context(), dispatch.EventQuit)
			require.True(t, handled)
			require.Equal(t, []string{"stop", "exit"}, j.list())
			require.Equal(t, []int{dispatch.ExitSuccess}, host.codes)
		})
	}
}

func TestShow(t *testing.T) {
	t.Parallel()
	for _, evt := range []dispatch.Event{dispatch.EventShow, dispatch.EventTrayClick} {
		t.Run(string(evt), func(t *testing.T) {
			t.Parallel()
			j := &journal{}
			host := &fakeHost{j: j, window: fakeWindow{j: j}}
			d := dispatch.New(fakeStopper{j: j}, host)

			require.True(t, d.Dispatch(t.Context(), evt))
			require.Equal(t, []string{"show", "focus"}, j.list())
			require.Empty(t, host.codes)
		})
	}

	t.Run("window errors are ignored", func(t *testing.T) {
		t.Parallel()
		j := &journal{}
		host := &fakeHost{j: j, window: fakeWindow{j: j, err: errors.New("window destroyed")}}
		d := dispatch.New(fakeStopper{j: j}, host)

		require.True(t, d.Dispatch(t.Context(), dispatch.EventShow))
		require.Equal(t, []string{"show", "focus"}, j.list())
	})

	t.Run("no window", func(t *testing.T) {
		t.Parallel()
		j := &journal{}
		d := dispatch.New(fakeStopper{j: j}, &fakeHost{j: j})

		require.NotPanics(t, func() {
			require.True(t, d.Dispatch(t.Context(), dispatch.EventShow))
		})
		require.Empty(t, j.list())
	})
}

func TestUnknownEvent(t *testing.T) {
	t.Parallel()
	j := &journal{}
	host := &fakeHost{j: j, window: fakeWindow{j: j}}
	d := dispatch.New(fakeStopper{j: j}, host)

	require.False(t, d.Dispatch(t.Context(), dispatch.Event("settings")))
	require.False(t, d.Dispatch(t.Context(), dispatch.Event("")))
	require.Empty(t, j.list())
	require.ElementsMatch(t, []dispatch.Event{
		dispatch.EventShow,
		dispatch.EventQuit,
		dispatch.EventTrayClick,
	}, d.Events())
}

func TestQuitStopsRealSupervisor(t *testing.T) {
	t.Parallel()
	j := &journal{}
	host := &fakeHost{j: j}
	s := service.NewSupervisor(service.Worker{})
	d := dispatch.New(s, host)

	require.True(t, d.Dispatch(t.Context(), dispatch.EventQuit))
	require.Equal(t, []string{"exit"}, j.list())
	require.False(t, s.Running())
}

func TestPanickingActionIsHandled(t *testing.T) {
	t.Parallel()
	j := &journal{}
	host := &fakeHost{j: j, window: panickingWindow{}}
	d := dispatch.New(fakeStopper{j: j, panic: true}, host)

	require.True(t, d.Dispatch(t.Context(), dispatch.EventQuit))
	require.True(t, d.Dispatch(t.Context(), dispatch.EventShow))
	require.Equal(t, []string{"stop", "exit"}, j.list())
}

type panickingWindow struct{}

func (panickingWindow) Show() error     { panic("window gone") }
func (panickingWindow) SetFocus() error { return nil }
