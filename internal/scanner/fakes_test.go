// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/codescan/internal/capture"
	"github.com/ManuGH/codescan/internal/decode"
)

type fakeStream struct {
	mu      sync.Mutex
	closed  bool
	stopped int
	reads   int
	err     error
	idle    bool
}

func (s *fakeStream) Frame() (capture.Frame, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return capture.Frame{}, false, capture.ErrStreamClosed
	}
	if s.err != nil {
		return capture.Frame{}, false, s.err
	}
	s.reads++
	if s.idle {
		return capture.Frame{}, false, nil
	}
	return capture.Frame{Pixels: []byte{0}, Width: 1, Height: 1, At: time.Now()}, true, nil
}

func (s *fakeStream) Tracks() []capture.Track { return []capture.Track{fakeTrack{s: s}} }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeStream) setIdle(idle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = idle
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

type fakeTrack struct{ s *fakeStream }

func (fakeTrack) Kind() string { return "video" }

func (t fakeTrack) Stop() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.stopped++
}

type fakeSource struct {
	mu      sync.Mutex
	err     error
	delay   time.Duration
	idle    bool // new streams never have a frame ready
	last    capture.Constraints
	streams []*fakeStream
}

func (s *fakeSource) Open(ctx context.Context, c capture.Constraints) (capture.Stream, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = c
	if s.err != nil {
		return nil, s.err
	}
	st := &fakeStream{idle: s.idle}
	s.streams = append(s.streams, st)
	return st, nil
}

func (s *fakeSource) constraints() capture.Constraints {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *fakeSource) opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

func (s *fakeSource) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.streams {
		if !st.isClosed() {
			n++
		}
	}
	return n
}

func (s *fakeSource) stream(i int) *fakeStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[i]
}

// valueDecoder returns the configured value for every frame; "" means none.
type valueDecoder struct {
	mu    sync.Mutex
	value string
}

func (d *valueDecoder) set(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = v
}

func (d *valueDecoder) Decode(capture.Frame) (decode.Candidate, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.value == "" {
		return decode.Candidate{}, false
	}
	return decode.Candidate{Value: d.value}, true
}

type recorder struct {
	mu     sync.Mutex
	events []ConfirmedEvent
}

func (r *recorder) Dispatch(ev ConfirmedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Value
	}
	return out
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
