// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/ManuGH/codescan/internal/procgroup"
	"github.com/rs/zerolog"
)

const (
	defaultWidth        = 640
	defaultHeight       = 480
	defaultStartTimeout = 5 * time.Second
	defaultStopGrace    = 2 * time.Second
	stderrRingSize      = 50
)

// FFmpegSource captures a camera device through an ffmpeg child process
// emitting raw 8-bit gray frames on stdout.
type FFmpegSource struct {
	Bin          string // defaults to "ffmpeg"
	Device       string // e.g. /dev/video0, or "0" for avfoundation
	// Devices maps a facing mode to its device; Device is the fallback.
	Devices      map[FacingMode]string
	InputFormat  string // ffmpeg -f value; "v4l2" enables a device probe
	Width        int    // used when the constraints leave the size open
	Height       int
	FPS          int
	StartTimeout time.Duration
	StopGrace    time.Duration
	Logger       zerolog.Logger
}

// Open starts ffmpeg and waits for the first frame.
func (s *FFmpegSource) Open(ctx context.Context, c Constraints) (Stream, error) {
	bin := s.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, acquisitionError(ReasonUnsupported, fmt.Errorf("ffmpeg binary %q: %w", bin, err))
	}
	device := s.device(c.FacingMode)
	if device == "" {
		return nil, acquisitionError(ReasonNoDevice, fmt.Errorf("no capture device for facing mode %q", c.FacingMode))
	}
	if s.InputFormat == "v4l2" {
		if err := probeDevice(device); err != nil {
			return nil, acquisitionError(classifyErr(err), err)
		}
	}

	width, height := c.Width, c.Height
	if width <= 0 || height <= 0 {
		width, height = s.Width, s.Height
	}
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}

	cmd := exec.Command(path, s.args(device, width, height)...)
	procgroup.Set(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, acquisitionError(ReasonUnsupported, fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, acquisitionError(ReasonUnsupported, fmt.Errorf("stderr pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return nil, acquisitionError(classifyErr(err), fmt.Errorf("start ffmpeg: %w", err))
	}

	logger := s.Logger.With().
		Int("pid", cmd.Process.Pid).
		Str("device", device).
		Str("facing_mode", string(c.FacingMode)).
		Logger()

	grace := s.StopGrace
	if grace <= 0 {
		grace = defaultStopGrace
	}
	st := &ffmpegStream{
		cmd:        cmd,
		width:      width,
		height:     height,
		grace:      grace,
		ring:       newLineRing(stderrRingSize),
		firstFrame: make(chan struct{}),
		exited:     make(chan struct{}),
		waitCh:     make(chan error, 1),
		logger:     logger,
	}
	st.stderrDone.Add(1)
	go st.readStderr(stderr)
	go st.readFrames(stdout)

	timeout := s.StartTimeout
	if timeout <= 0 {
		timeout = defaultStartTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-st.firstFrame:
		logger.Info().Int("width", width).Int("height", height).Msg("capture stream opened")
		return st, nil
	case <-st.exited:
		_ = st.Close()
		lines := st.ring.Lines()
		return nil, acquisitionError(classifyStderr(lines), fmt.Errorf("ffmpeg exited during startup: %s", st.ring.Last()))
	case <-timer.C:
		_ = st.Close()
		return nil, acquisitionError(ReasonTimeout, fmt.Errorf("no frame within %s", timeout))
	case <-ctx.Done():
		_ = st.Close()
		return nil, acquisitionError(ReasonTimeout, ctx.Err())
	}
}

func (s *FFmpegSource) device(mode FacingMode) string {
	if d := s.Devices[mode]; d != "" {
		return d
	}
	return s.Device
}

func (s *FFmpegSource) args(device string, width, height int) []string {
	size := strconv.Itoa(width) + "x" + strconv.Itoa(height)
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	if s.InputFormat != "" {
		args = append(args, "-f", s.InputFormat)
	}
	if s.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(s.FPS))
	}
	args = append(args,
		"-i", device,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-s", size,
		"pipe:1",
	)
	return args
}

func probeDevice(device string) error {
	f, err := os.OpenFile(device, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open device %s: %w", device, err)
	}
	return f.Close()
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	width  int
	height int
	grace  time.Duration
	ring   *lineRing
	logger zerolog.Logger

	firstFrame chan struct{}
	exited     chan struct{}
	waitCh     chan error
	stderrDone sync.WaitGroup
	closeOnce  sync.Once
	closeErr   error

	mu      sync.Mutex
	latest  Frame
	fresh   bool
	dropped uint64
	err     error
	closed  bool
}

func (s *ffmpegStream) readStderr(r io.Reader) {
	defer s.stderrDone.Done()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s.ring.Add(sc.Text())
	}
}

// readFrames keeps only the newest frame; unread frames are overwritten.
func (s *ffmpegStream) readFrames(r io.Reader) {
	size := s.width * s.height
	var first sync.Once
	for {
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			s.fail(err)
			break
		}
		s.mu.Lock()
		if s.fresh {
			s.dropped++
		}
		s.latest = Frame{Pixels: buf, Width: s.width, Height: s.height, At: time.Now()}
		s.fresh = true
		s.mu.Unlock()
		first.Do(func() { close(s.firstFrame) })
	}
	// Startup classification reads the stderr tail once exited closes, and
	// Wait must not run before all pipe reads are complete.
	s.stderrDone.Wait()
	close(s.exited)
	s.waitCh <- s.cmd.Wait()
}

func (s *ffmpegStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, os.ErrClosed) {
		s.err = ErrStreamClosed
	} else {
		s.err = fmt.Errorf("%w: %v", ErrStreamClosed, err)
	}
}

func (s *ffmpegStream) Frame() (Frame, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, false, ErrStreamClosed
	}
	if s.fresh {
		s.fresh = false
		return s.latest, true, nil
	}
	if s.err != nil {
		if last := s.ring.Last(); last != "" {
			return Frame{}, false, fmt.Errorf("%w (%s)", s.err, last)
		}
		return Frame{}, false, s.err
	}
	return Frame{}, false, nil
}

func (s *ffmpegStream) Tracks() []Track {
	return []Track{ffmpegTrack{s: s}}
}

// Close terminates the ffmpeg process group. Safe to call more than once.
func (s *ffmpegStream) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		dropped := s.dropped
		s.mu.Unlock()

		err := procgroup.Terminate(s.cmd, s.waitCh, s.grace)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Signalled exits are the expected outcome of a release.
			err = nil
		}
		s.closeErr = err
		s.logger.Info().Uint64("dropped_frames", dropped).Msg("capture stream released")
	})
	return s.closeErr
}

type ffmpegTrack struct {
	s *ffmpegStream
}

func (ffmpegTrack) Kind() string { return "video" }

func (t ffmpegTrack) Stop() { _ = t.s.Close() }
