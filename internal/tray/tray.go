// Package tray renders the system tray icon and its menu and turns user
// interaction into dispatch events.
package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"

	"github.com/energye/systray"

	"github.com/whisper-dictation/host/internal/dispatch"
)

type Item struct {
	Title   string
	Tooltip string
	Event   dispatch.Event
}

// Menu is the tray menu, top to bottom.
var Menu = []Item{
	{Title: "Show", Tooltip: "Show the dictation window", Event: dispatch.EventShow},
	{Title: "Quit", Tooltip: "Stop the backend and quit", Event: dispatch.EventQuit},
}

type Options struct {
	Tooltip string
	Icon    []byte // png; DefaultIcon when empty
	OnEvent func(dispatch.Event)
	OnReady func()
	OnExit  func()
}

// System is the desktop tray.
type System struct{}

func (System) Run(opts Options) { Run(opts) }
func (System) Quit()            { Quit() }

// Run shows the tray and blocks until Quit is called.
func Run(opts Options) {
	onExit := opts.OnExit
	if onExit == nil {
		onExit = func() {}
	}
	systray.Run(func() { ready(opts) }, onExit)
}

// Quit removes the tray and makes Run return.
func Quit() {
	systray.Quit()
}

func ready(opts Options) {
	emit := opts.OnEvent
	if emit == nil {
		emit = func(dispatch.Event) {}
	}

	icon := opts.Icon
	if len(icon) == 0 {
		var err error
		if icon, err = DefaultIcon(); err != nil {
			slog.Warn("drawing tray icon", "error", err)
		}
	}
	if len(icon) > 0 {
		systray.SetIcon(icon)
	}
	systray.SetTooltip(opts.Tooltip)

	systray.SetOnClick(func(systray.IMenu) {
		emit(dispatch.EventTrayClick)
	})
	systray.SetOnRClick(func(menu systray.IMenu) {
		_ = menu.ShowMenu()
	})

	for _, item := range Menu {
		mi := systray.AddMenuItem(item.Title, item.Tooltip)
		evt := item.Event
		mi.Click(func() {
			emit(evt)
		})
	}

	if opts.OnReady != nil {
		opts.OnReady()
	}
}

// DefaultIcon draws a filled microphone-coloured disc.
func DefaultIcon() ([]byte, error) {
	const size = 32
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fill := color.NRGBA{R: 0xe5, G: 0x48, B: 0x4d, A: 0xff}
	c := size / 2
	r2 := (c - 2) * (c - 2)
	for y := range size {
		for x := range size {
			dx, dy := x-c, y-c
			if dx*dx+dy*dy <= r2 {
				img.SetNRGBA(x, y, fill)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
