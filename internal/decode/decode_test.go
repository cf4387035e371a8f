// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decode

import (
	"errors"
	"testing"

	"github.com/ManuGH/codescan/internal/capture"
	"github.com/ManuGH/codescan/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func frame(w, h int) capture.Frame {
	return capture.Frame{Pixels: make([]byte, w*h), Width: w, Height: h}
}

func TestAdapter_ReturnsCandidate(t *testing.T) {
	want := Candidate{Value: "4006381333931", Geometry: [4]Point{{1, 1}, {9, 1}, {9, 9}, {1, 9}}}
	var gotOpts Options
	a := NewAdapter(func(_ []byte, w, h int, opts Options) (*Candidate, error) {
		gotOpts = opts
		assert.Equal(t, 10, w)
		assert.Equal(t, 4, h)
		c := want
		return &c, nil
	}, Options{TryHarder: true}, zerolog.Nop())

	got, ok := a.Decode(frame(10, 4))
	assert.True(t, ok)
	assert.Equal(t, want, got)
	assert.True(t, gotOpts.TryHarder)
}

func TestAdapter_SwallowsFailures(t *testing.T) {
	tests := []struct {
		name   string
		fn     Func
		frame  capture.Frame
		result string
	}{
		{
			name:   "primitive error",
			fn:     func([]byte, int, int, Options) (*Candidate, error) { return nil, errors.New("bad frame") },
			frame:  frame(2, 2),
			result: "failure",
		},
		{
			name:   "primitive panic",
			fn:     func([]byte, int, int, Options) (*Candidate, error) { panic("index out of range") },
			frame:  frame(2, 2),
			result: "panic",
		},
		{
			name:   "short pixel buffer",
			fn:     func([]byte, int, int, Options) (*Candidate, error) { t.Fatal("primitive must not be called"); return nil, nil },
			frame:  capture.Frame{Pixels: make([]byte, 3), Width: 2, Height: 2},
			result: "failure",
		},
		{
			name:   "no code",
			fn:     func([]byte, int, int, Options) (*Candidate, error) { return nil, nil },
			frame:  frame(2, 2),
			result: "empty",
		},
		{
			name:   "empty value",
			fn:     func([]byte, int, int, Options) (*Candidate, error) { return &Candidate{}, nil },
			frame:  frame(2, 2),
			result: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.DecodeAttempts.WithLabelValues(tt.result))
			a := NewAdapter(tt.fn, Options{}, zerolog.Nop())

			assert.NotPanics(t, func() {
				_, ok := a.Decode(tt.frame)
				assert.False(t, ok)
			})
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.DecodeAttempts.WithLabelValues(tt.result)))
		})
	}
}
