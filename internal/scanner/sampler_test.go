// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scanner

import (
	"testing"

	"github.com/ManuGH/codescan/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_ReadsEveryNthTick(t *testing.T) {
	st := &fakeStream{}
	s := NewSampler(st, 10)

	ready := 0
	for i := 1; i <= 30; i++ {
		_, ok, err := s.Next()
		require.NoError(t, err)
		if ok {
			ready++
			assert.Zero(t, i%10, "frame only on decode ticks, got one at tick %d", i)
		}
	}
	assert.Equal(t, 3, ready)
	assert.Equal(t, 3, st.readCount())
	assert.Equal(t, uint64(30), s.Ticks())
}

func TestSampler_NotReadyIsNotAnError(t *testing.T) {
	st := &fakeStream{idle: true}
	s := NewSampler(st, 1)

	_, ok, err := s.Next()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSampler_StreamError(t *testing.T) {
	st := &fakeStream{}
	st.fail(capture.ErrStreamClosed)
	s := NewSampler(st, 0)

	_, ok, err := s.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, err, capture.ErrStreamClosed)
}
