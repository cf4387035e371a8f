// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scanner

import (
	"time"

	"github.com/ManuGH/codescan/internal/decode"
	"github.com/google/uuid"
)

// ConfirmedEvent is a decoded value accepted by the Filter.
type ConfirmedEvent struct {
	ID        string
	SessionID string
	Value     string
	At        time.Time
	Geometry  [4]decode.Point
}

// Filter suppresses a value seen again within the suppression window.
// Values are compared byte for byte. Not safe for concurrent use.
type Filter struct {
	window    time.Duration
	lastValue string
	lastAt    time.Time
}

// NewFilter returns a Filter with the given suppression window.
func NewFilter(window time.Duration) *Filter {
	return &Filter{window: window}
}

// Offer decides whether c is a new event at now.
func (f *Filter) Offer(c decode.Candidate, now time.Time) (ConfirmedEvent, bool) {
	if c.Value == "" {
		return ConfirmedEvent{}, false
	}
	if c.Value == f.lastValue && now.Sub(f.lastAt) <= f.window {
		return ConfirmedEvent{}, false
	}
	f.lastValue = c.Value
	f.lastAt = now
	return ConfirmedEvent{
		ID:       uuid.NewString(),
		Value:    c.Value,
		At:       now,
		Geometry: c.Geometry,
	}, true
}

// Reset forgets the last confirmed value.
func (f *Filter) Reset() {
	f.lastValue = ""
	f.lastAt = time.Time{}
}

// LastValue returns the last confirmed value, or "".
func (f *Filter) LastValue() string { return f.lastValue }

// LastAt returns when LastValue was confirmed.
func (f *Filter) LastAt() time.Time { return f.lastAt }
