package tray_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whisper-dictation/host/internal/dispatch"
	"github.com/whisper-dictation/host/internal/tray"
)

func TestDefaultIcon(t *testing.T) {
	t.Parallel()
	icon, err := tray.DefaultIcon()
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(icon))
	require.NoError(t, err)
	require.Equal(t, 32, img.Bounds().Dx())
	_, _, _, a := img.At(16, 16).RGBA()
	require.NotZero(t, a)
	_, _, _, a = img.At(0, 0).RGBA()
	require.Zero(t, a)
}

func TestMenuEventsAreDispatchable(t *testing.T) {
	t.Parallel()
	d := dispatch.New(nil, nil)
	known := d.Events()
	require.Len(t, tray.Menu, 2)
	for _, item := range tray.Menu {
		require.NotEmpty(t, item.Title)
		require.Contains(t, known, item.Event)
	}
	require.Contains(t, known, dispatch.EventTrayClick)
}
