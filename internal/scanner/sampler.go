// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scanner

import (
	"github.com/ManuGH/codescan/internal/capture"
	"github.com/ManuGH/codescan/internal/metrics"
)

// Sampler pulls frames from a stream on every Nth tick.
type Sampler struct {
	stream capture.Stream
	every  uint64
	ticks  uint64
}

// NewSampler returns a Sampler reading stream every n ticks. n < 1 means 1.
func NewSampler(stream capture.Stream, n int) *Sampler {
	if n < 1 {
		n = 1
	}
	return &Sampler{stream: stream, every: uint64(n)}
}

// Next advances one tick. It returns a frame only on a decode tick with a
// frame ready. An error means the stream is gone.
func (s *Sampler) Next() (capture.Frame, bool, error) {
	s.ticks++
	if s.ticks%s.every != 0 {
		return capture.Frame{}, false, nil
	}

	f, ready, err := s.stream.Frame()
	switch {
	case err != nil:
		metrics.ObserveFrame("error")
		return capture.Frame{}, false, err
	case !ready:
		metrics.ObserveFrame("not_ready")
		return capture.Frame{}, false, nil
	default:
		metrics.ObserveFrame("ready")
		return f, true, nil
	}
}

// Ticks returns the number of ticks seen.
func (s *Sampler) Ticks() uint64 { return s.ticks }
