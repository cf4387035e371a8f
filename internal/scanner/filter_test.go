// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scanner

import (
	"testing"
	"time"

	"github.com/ManuGH/codescan/internal/decode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return epoch.Add(time.Duration(ms) * time.Millisecond) }

func cand(v string) decode.Candidate { return decode.Candidate{Value: v} }

func TestFilter_SuppressesWithinWindowThenRetriggers(t *testing.T) {
	f := NewFilter(2000 * time.Millisecond)

	ev, ok := f.Offer(cand("A"), at(0))
	require.True(t, ok, "first candidate is always accepted")
	assert.Equal(t, "A", ev.Value)
	assert.Equal(t, at(0), ev.At)
	assert.NotEmpty(t, ev.ID)

	_, ok = f.Offer(cand("A"), at(100))
	assert.False(t, ok, "duplicate inside the window is suppressed")

	_, ok = f.Offer(cand("A"), at(2000))
	assert.False(t, ok, "window boundary is inclusive")

	ev, ok = f.Offer(cand("A"), at(2100))
	require.True(t, ok, "same value after the window re-triggers")
	assert.Equal(t, at(2100), ev.At)
}

func TestFilter_SuppressionDoesNotExtendWindow(t *testing.T) {
	f := NewFilter(time.Second)

	_, ok := f.Offer(cand("A"), at(0))
	require.True(t, ok)
	for ms := 100; ms <= 1000; ms += 100 {
		_, ok = f.Offer(cand("A"), at(ms))
		require.False(t, ok, "at %dms", ms)
	}
	_, ok = f.Offer(cand("A"), at(1001))
	assert.True(t, ok, "window is measured from the last confirmation")
}

func TestFilter_DistinctValueAcceptedImmediately(t *testing.T) {
	f := NewFilter(2000 * time.Millisecond)

	a, ok := f.Offer(cand("A"), at(0))
	require.True(t, ok)
	b, ok := f.Offer(cand("B"), at(50))
	require.True(t, ok)
	assert.NotEqual(t, a.ID, b.ID)

	_, ok = f.Offer(cand("A"), at(60))
	assert.True(t, ok, "switching back is a distinct value too")
}

func TestFilter_ByteExactComparison(t *testing.T) {
	f := NewFilter(time.Hour)

	_, ok := f.Offer(cand("abc"), at(0))
	require.True(t, ok)
	_, ok = f.Offer(cand("ABC"), at(1))
	assert.True(t, ok)
	_, ok = f.Offer(cand("ABC "), at(2))
	assert.True(t, ok)
}

func TestFilter_EmptyValueIgnored(t *testing.T) {
	f := NewFilter(0)
	_, ok := f.Offer(cand(""), at(0))
	assert.False(t, ok)
	assert.Empty(t, f.LastValue())
}

func TestFilter_Reset(t *testing.T) {
	f := NewFilter(time.Hour)
	_, ok := f.Offer(cand("A"), at(0))
	require.True(t, ok)

	f.Reset()
	assert.Empty(t, f.LastValue())
	assert.True(t, f.LastAt().IsZero())

	_, ok = f.Offer(cand("A"), at(1))
	assert.True(t, ok, "reset forgets the previous confirmation")
}

func TestFilter_CarriesGeometry(t *testing.T) {
	f := NewFilter(time.Second)
	g := [4]decode.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}, {X: 7, Y: 8}}

	ev, ok := f.Offer(decode.Candidate{Value: "X", Geometry: g}, at(0))
	require.True(t, ok)
	assert.Equal(t, g, ev.Geometry)
}
