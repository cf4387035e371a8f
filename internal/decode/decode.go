// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package decode turns sampled frames into at most one decoded code value.
package decode

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/codescan/internal/capture"
	"github.com/ManuGH/codescan/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Point is a corner of a detected code in frame pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Candidate is a value decoded from a single frame.
type Candidate struct {
	Value    string
	Geometry [4]Point
}

// Options are passed through to the decode primitive.
type Options struct {
	TryHarder bool
}

// Func is a decode primitive. It returns nil when the frame holds no code.
type Func func(pixels []byte, width, height int, opts Options) (*Candidate, error)

var errMalformedFrame = errors.New("malformed frame")

// Adapter wraps a decode primitive so that callers only ever see a
// candidate or nothing. Failures and panics of the primitive are counted
// and logged at trace level, never returned.
type Adapter struct {
	fn     Func
	opts   Options
	logger zerolog.Logger
	trace  rate.Sometimes
}

// NewAdapter returns an Adapter around fn.
func NewAdapter(fn Func, opts Options, logger zerolog.Logger) *Adapter {
	return &Adapter{
		fn:     fn,
		opts:   opts,
		logger: logger,
		trace:  rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
}

// Decode returns the candidate found in frame, if any.
func (a *Adapter) Decode(frame capture.Frame) (c Candidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ObserveDecode("panic")
			a.logFailure(fmt.Errorf("decode panic: %v", r))
			c, ok = Candidate{}, false
		}
	}()

	if frame.Width <= 0 || frame.Height <= 0 || len(frame.Pixels) < frame.Width*frame.Height {
		metrics.ObserveDecode("failure")
		a.logFailure(fmt.Errorf("%w: %dx%d with %d bytes", errMalformedFrame, frame.Width, frame.Height, len(frame.Pixels)))
		return Candidate{}, false
	}

	cand, err := a.fn(frame.Pixels, frame.Width, frame.Height, a.opts)
	if err != nil {
		metrics.ObserveDecode("failure")
		a.logFailure(err)
		return Candidate{}, false
	}
	if cand == nil || cand.Value == "" {
		metrics.ObserveDecode("empty")
		return Candidate{}, false
	}
	metrics.ObserveDecode("candidate")
	return *cand, true
}

func (a *Adapter) logFailure(err error) {
	a.trace.Do(func() {
		a.logger.Trace().Err(err).Msg("decode attempt failed")
	})
}
