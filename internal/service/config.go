package service

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/whisper-dictation/host/internal/model"
)

// Command is a fully resolved worker invocation.
type Command struct {
	Path string
	Args []string
	Env  []string
}

// Worker describes how to launch the backend. It is resolved into a Command on
// every Start, so $WORKER_BIN changes are picked up between launches.
type Worker struct {
	Interpreter string
	Entry       string
	Args        []string
	Env         map[string]string
	ResourceDir string
}

func WorkerFromConfig(cfg model.Worker) Worker {
	return Worker{
		Interpreter: cfg.Interpreter,
		Entry:       cfg.Entry,
		Args:        slices.Clone(cfg.Args),
		Env:         maps.Clone(cfg.Env),
		ResourceDir: cfg.ResourceDir,
	}
}

func (w Worker) Cmd() (Command, error) {
	entry, err := w.EntryPath()
	if err != nil {
		return Command{}, err
	}

	args := make([]string, 0, len(w.Args)+1)
	args = append(args, entry)
	args = append(args, w.Args...)

	return Command{
		Path: w.InterpreterPath(),
		Args: args,
		Env:  w.environ(),
	}, nil
}

// InterpreterPath returns $WORKER_BIN when set, the configured interpreter
// otherwise. A bare name is left for exec to resolve through $PATH.
func (w Worker) InterpreterPath() string {
	if v, ok := os.LookupEnv(model.EnvWorkerBin); ok && v != "" {
		return v
	}
	if w.Interpreter == "" {
		return model.DefaultInterpreter
	}
	return w.Interpreter
}

// EntryPath returns the absolute location of the worker entry point.
func (w Worker) EntryPath() (string, error) {
	entry := w.Entry
	if entry == "" {
		entry = model.DefaultEntry
	}
	if filepath.IsAbs(entry) {
		return filepath.Clean(entry), nil
	}

	root := w.ResourceDir
	if root == "" {
		var err error
		root, err = ResourceRoot()
		if err != nil {
			return "", err
		}
	} else if !filepath.IsAbs(root) {
		var err error
		root, err = filepath.Abs(root)
		if err != nil {
			return "", fmt.Errorf("resolving resource dir %s: %w", w.ResourceDir, err)
		}
	}
	return filepath.Join(root, entry), nil
}

// ResourceRoot returns the directory holding the host executable.
func ResourceRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating host executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func (w Worker) environ() []string {
	env := os.Environ()
	keys := make([]string, 0, len(w.Env))
	for k := range w.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		v := w.Env[k]
		if strings.HasPrefix(v, "$") {
			v = os.ExpandEnv(v)
		}
		env = append(env, k+"="+v)
	}
	return env
}
