// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFFmpeg writes an executable shell script standing in for ffmpeg.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestFFmpegSource_DeliversFramesAndReleases(t *testing.T) {
	// Three 2x2 frames, then hold the pipe open until terminated.
	bin := fakeFFmpeg(t, "head -c 12 /dev/zero\nexec sleep 30")
	src := &FFmpegSource{
		Bin:         bin,
		Device:      "testsrc",
		InputFormat: "lavfi",
		StopGrace:   time.Second,
		Logger:      zerolog.Nop(),
	}

	st, err := src.Open(context.Background(), Constraints{FacingMode: FacingEnvironment, Width: 2, Height: 2})
	require.NoError(t, err)

	var got Frame
	require.Eventually(t, func() bool {
		f, ready, err := st.Frame()
		if err != nil {
			return false
		}
		if ready {
			got = f
		}
		return ready
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, got.Width)
	assert.Len(t, got.Pixels, 4)

	start := time.Now()
	require.NoError(t, st.Close())
	assert.Less(t, time.Since(start), 5*time.Second)

	_, ready, err := st.Frame()
	assert.False(t, ready)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestFFmpegSource_StartupFailureIsClassified(t *testing.T) {
	bin := fakeFFmpeg(t, "echo '/dev/video0: Permission denied' >&2\nexit 1")
	src := &FFmpegSource{Bin: bin, Device: "/dev/video0", InputFormat: "lavfi", Logger: zerolog.Nop()}

	_, err := src.Open(context.Background(), Constraints{Width: 2, Height: 2})
	require.Error(t, err)

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, ReasonPermissionDenied, acqErr.Reason)
}

func TestFFmpegSource_StartupFailureWaitsForStderr(t *testing.T) {
	// stdout closes well before the error line reaches stderr.
	bin := fakeFFmpeg(t, "exec 1>&-\nsleep 0.2\necho '/dev/video0: Permission denied' >&2\nexit 1")
	src := &FFmpegSource{Bin: bin, Device: "/dev/video0", InputFormat: "lavfi", Logger: zerolog.Nop()}

	_, err := src.Open(context.Background(), Constraints{Width: 2, Height: 2})

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, ReasonPermissionDenied, acqErr.Reason)
}

func TestFFmpegSource_StreamLostAfterExit(t *testing.T) {
	bin := fakeFFmpeg(t, "head -c 4 /dev/zero\nsleep 0.3\necho 'device unplugged' >&2")
	src := &FFmpegSource{Bin: bin, Device: "x", InputFormat: "lavfi", Logger: zerolog.Nop()}

	st, err := src.Open(context.Background(), Constraints{Width: 2, Height: 2})
	require.NoError(t, err)
	defer st.Close()

	require.Eventually(t, func() bool {
		_, _, err := st.Frame()
		return errors.Is(err, ErrStreamClosed)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFFmpegSource_MissingBinary(t *testing.T) {
	src := &FFmpegSource{Bin: filepath.Join(t.TempDir(), "nope"), Logger: zerolog.Nop()}
	_, err := src.Open(context.Background(), Constraints{})

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, ReasonUnsupported, acqErr.Reason)
}

func TestFFmpegSource_MissingDevice(t *testing.T) {
	bin := fakeFFmpeg(t, "exit 0")
	src := &FFmpegSource{Bin: bin, Device: filepath.Join(t.TempDir(), "video9"), InputFormat: "v4l2", Logger: zerolog.Nop()}
	_, err := src.Open(context.Background(), Constraints{})

	var acqErr *AcquisitionError
	require.True(t, errors.As(err, &acqErr))
	assert.Equal(t, ReasonNoDevice, acqErr.Reason)
}

func TestFFmpegSource_Args(t *testing.T) {
	src := &FFmpegSource{Device: "/dev/video0", InputFormat: "v4l2", FPS: 15}
	assert.Equal(t, []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "v4l2", "-framerate", "15",
		"-i", "/dev/video0",
		"-an", "-f", "rawvideo", "-pix_fmt", "gray", "-s", "640x480",
		"pipe:1",
	}, src.args("/dev/video0", 640, 480))
}

func TestFFmpegSource_DeviceFollowsFacingMode(t *testing.T) {
	src := &FFmpegSource{
		Device:  "/dev/video0",
		Devices: map[FacingMode]string{FacingFront: "/dev/video1"},
	}
	assert.Equal(t, "/dev/video1", src.device(FacingFront))
	assert.Equal(t, "/dev/video0", src.device(FacingEnvironment))
	assert.Equal(t, "/dev/video0", src.device(""))
}

func TestFFmpegSource_OpensFrontDevice(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := fakeFFmpeg(t, "printf '%s\\n' \"$@\" > "+argsFile+"\nhead -c 4 /dev/zero\nexec sleep 30")
	src := &FFmpegSource{
		Bin:         bin,
		Device:      "/dev/video0",
		Devices:     map[FacingMode]string{FacingFront: "/dev/video1", FacingEnvironment: "/dev/video2"},
		InputFormat: "lavfi",
		StopGrace:   time.Second,
		Logger:      zerolog.Nop(),
	}

	st, err := src.Open(context.Background(), Constraints{FacingMode: FacingFront, Width: 2, Height: 2})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	raw, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	args := strings.Split(strings.TrimSpace(string(raw)), "\n")
	i := slices.Index(args, "-i")
	require.GreaterOrEqual(t, i, 0)
	require.Less(t, i+1, len(args))
	assert.Equal(t, "/dev/video1", args[i+1])
	assert.Contains(t, args, "2x2")
}
