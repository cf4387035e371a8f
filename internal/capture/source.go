// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package capture defines the camera stream contract consumed by the scanner
// and provides device and still-image implementations.
package capture

import (
	"context"
	"time"
)

// FacingMode selects which camera a source should prefer.
type FacingMode string

const (
	FacingFront       FacingMode = "front"
	FacingEnvironment FacingMode = "environment"
)

// Constraints are the requested properties of a stream.
type Constraints struct {
	FacingMode FacingMode
	Width      int
	Height     int
}

// Frame is a single 8-bit luminance image.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
	At     time.Time
}

// Track is one media track of a stream.
type Track interface {
	Kind() string
	Stop()
}

// Stream is a live camera session.
type Stream interface {
	// Tracks lists the tracks held by the stream.
	Tracks() []Track
	// Frame returns the newest frame not yet returned. ready is false when
	// no new frame arrived since the last call. A non-nil error means the
	// stream is gone and no further frames will arrive.
	Frame() (f Frame, ready bool, err error)
	// Close stops all tracks and releases the device.
	Close() error
}

// Source opens camera streams.
type Source interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}
