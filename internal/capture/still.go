// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// StillSource replays PNG/JPEG images from a directory as a camera stream.
// Each Frame call returns the next image, wrapping at the end.
type StillSource struct {
	Dir string
}

// Open loads every image in Dir. Constraints are ignored.
func (s *StillSource) Open(ctx context.Context, _ Constraints) (Stream, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, acquisitionError(classifyErr(err), fmt.Errorf("read stills dir: %w", err))
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, acquisitionError(ReasonNoDevice, fmt.Errorf("no images in %s", s.Dir))
	}
	sort.Strings(names)

	frames := make([]Frame, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, acquisitionError(ReasonTimeout, err)
		}
		f, err := loadGray(filepath.Join(s.Dir, name))
		if err != nil {
			return nil, acquisitionError(ReasonUnsupported, err)
		}
		frames = append(frames, f)
	}
	return &stillStream{frames: frames}, nil
}

func loadGray(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return FrameFromImage(img), nil
}

// FrameFromImage converts any image to a luminance frame.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return Frame{Pixels: gray.Pix, Width: b.Dx(), Height: b.Dy()}
}

type stillStream struct {
	mu     sync.Mutex
	frames []Frame
	next   int
	closed bool
}

func (s *stillStream) Frame() (Frame, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, false, ErrStreamClosed
	}
	f := s.frames[s.next]
	s.next = (s.next + 1) % len(s.frames)
	f.At = time.Now()
	return f, true, nil
}

func (s *stillStream) Tracks() []Track {
	return []Track{stillTrack{s: s}}
}

func (s *stillStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type stillTrack struct {
	s *stillStream
}

func (stillTrack) Kind() string { return "video" }

func (t stillTrack) Stop() { _ = t.s.Close() }
