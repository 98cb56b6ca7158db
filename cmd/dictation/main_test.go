package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whisper-dictation/host/internal/model"
)

func TestFindConfig(t *testing.T) {
	t.Parallel()
	user := t.TempDir()
	cwd := t.TempDir()
	inCwd := filepath.Join(cwd, configFileName)
	require.NoError(t, os.WriteFile(inCwd, []byte("version: 0\n"), 0o644))

	require.Equal(t, "/env.yaml", findConfig("/env.yaml", "/flag.yaml", user, cwd))
	require.Equal(t, "/flag.yaml", findConfig("", "/flag.yaml", user, cwd))
	require.Equal(t, inCwd, findConfig("", "", user, cwd))

	inUser := filepath.Join(user, configFileName)
	require.NoError(t, os.WriteFile(inUser, []byte("version: 0\n"), 0o644))
	require.Equal(t, inUser, findConfig("", "", user, cwd))

	require.Empty(t, findConfig("", "", t.TempDir()))
	// directories named like the config are not configs
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, configFileName), 0o755))
	require.Empty(t, findConfig("", "", dir))
}

func TestStoreDefaultConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dictation", configFileName)

	stored, err := storeDefaultConfig(path)
	require.NoError(t, err)
	require.Equal(t, model.DefaultConfig(), stored)

	loaded, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, stored, loaded)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(bad, []byte("version: 1\n"), 0o644))
	_, err = loadConfig(bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), bad)
}

func TestLockPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, "/run/x.lock", lockPath("/run/x.lock"))
	def := lockPath("")
	require.Equal(t, "dictation.lock", filepath.Base(def))
	require.True(t, filepath.IsAbs(def))
}

func TestMainWindow(t *testing.T) {
	t.Parallel()
	require.Nil(t, mainWindow(""))
	require.NotNil(t, mainWindow(model.DefaultUIURL))
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	printVersion(&buf)
	require.Contains(t, buf.String(), "dictation")
}
