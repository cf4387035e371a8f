// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, fill uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: fill, G: fill, B: fill, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestStillSource_CyclesImagesInOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 4, 2, 200)
	writePNG(t, filepath.Join(dir, "a.png"), 4, 2, 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	src := &StillSource{Dir: dir}
	st, err := src.Open(context.Background(), Constraints{})
	require.NoError(t, err)
	defer st.Close()

	f1, ready, err := st.Frame()
	require.NoError(t, err)
	require.True(t, ready)
	assert.Equal(t, 4, f1.Width)
	assert.Equal(t, 2, f1.Height)
	require.Len(t, f1.Pixels, 8)
	assert.Equal(t, uint8(10), f1.Pixels[0], "a.png sorts first")

	f2, _, _ := st.Frame()
	assert.Equal(t, uint8(200), f2.Pixels[0])

	f3, _, _ := st.Frame()
	assert.Equal(t, uint8(10), f3.Pixels[0], "wraps around")
}

func TestStillSource_CloseStopsFrames(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2, 0)

	st, err := (&StillSource{Dir: dir}).Open(context.Background(), Constraints{})
	require.NoError(t, err)

	tracks := st.Tracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, "video", tracks[0].Kind())
	tracks[0].Stop()

	_, ready, err := st.Frame()
	assert.False(t, ready)
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.NoError(t, st.Close())
}

func TestStillSource_AcquisitionErrors(t *testing.T) {
	tests := []struct {
		name   string
		dir    func(t *testing.T) string
		reason string
	}{
		{
			name:   "missing directory",
			dir:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") },
			reason: ReasonNoDevice,
		},
		{
			name:   "no images",
			dir:    func(t *testing.T) string { return t.TempDir() },
			reason: ReasonNoDevice,
		},
		{
			name: "corrupt image",
			dir: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("not a png"), 0o600))
				return dir
			},
			reason: ReasonUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&StillSource{Dir: tt.dir(t)}).Open(context.Background(), Constraints{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAcquisition)

			var acqErr *AcquisitionError
			require.True(t, errors.As(err, &acqErr))
			assert.Equal(t, tt.reason, acqErr.Reason)
		})
	}
}

func TestFrameFromImage_OffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(5, 5, 8, 7))
	img.SetGray(5, 5, color.Gray{Y: 42})

	f := FrameFromImage(img)
	assert.Equal(t, 3, f.Width)
	assert.Equal(t, 2, f.Height)
	assert.Equal(t, uint8(42), f.Pixels[0])
}
