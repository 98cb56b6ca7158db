package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/whisper-dictation/host/internal/dispatch"
	"github.com/whisper-dictation/host/internal/lock"
	"github.com/whisper-dictation/host/internal/log"
	"github.com/whisper-dictation/host/internal/service"
	"github.com/whisper-dictation/host/internal/shell"
	"github.com/whisper-dictation/host/internal/tray"
	"github.com/whisper-dictation/host/internal/window"
)

// exitCode is the code requested by the shell on the quit path.
var exitCode int

func doRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	attrs := slog.Group("dictation",
		slog.String("cmd", "run"),
		slog.Int("pid", os.Getpid()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	l, err := lock.Acquire(lockPath(config.Service.Lock))
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Release(); err != nil {
			slog.WarnContext(ctx, "releasing lock", "path", l.Path(), "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervisor := service.SupervisorFromConfig(config.Worker)
	defer func() {
		_ = supervisor.Close()
	}()

	// the shell stays usable without a backend
	if err := supervisor.Start(ctx); err != nil {
		slog.WarnContext(ctx, "worker not started", "error", err)
	}

	sh := shell.New(mainWindow(config.UI.URL))
	d := dispatch.New(supervisor, sh)

	if flagHeadless {
		exitCode = sh.RunHeadless(ctx, d)
	} else {
		exitCode = sh.RunTray(ctx, d, tray.System{}, tray.Options{
			Tooltip: config.UI.Tooltip,
		})
	}
	slog.InfoContext(ctx, "dictation exiting", "code", exitCode)
	return nil
}

func mainWindow(url string) dispatch.Window {
	b := window.NewBrowser(url)
	if b == nil {
		return nil
	}
	// xdg-open and friends chatter on the host terminal
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return b
}

// lockPath returns the configured lock path or the default one in the user
// cache directory.
func lockPath(configured string) string {
	if configured != "" {
		return configured
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dictation", "dictation.lock")
}
