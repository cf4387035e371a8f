// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/codescan/internal/capture"
	"github.com/ManuGH/codescan/internal/config"
	"github.com/ManuGH/codescan/internal/decode"
	"github.com/ManuGH/codescan/internal/lookup"
	"github.com/ManuGH/codescan/internal/scanner"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStream struct{}

func (staticStream) Frame() (capture.Frame, bool, error) {
	return capture.Frame{Pixels: []byte{0}, Width: 1, Height: 1}, true, nil
}
func (staticStream) Tracks() []capture.Track { return nil }
func (staticStream) Close() error            { return nil }

type staticSource struct{}

func (staticSource) Open(context.Context, capture.Constraints) (capture.Stream, error) {
	return staticStream{}, nil
}

type constDecoder string

func (d constDecoder) Decode(capture.Frame) (decode.Candidate, bool) {
	return decode.Candidate{Value: string(d)}, true
}

func TestPipeline_NotFoundKeepsScanning(t *testing.T) {
	p := &recordingPresenter{}
	d := New(lookupFunc(func(_ context.Context, code string) (lookup.Record, error) {
		return lookup.Record{}, &lookup.Error{Sentinel: lookup.ErrNotFound, Code: code, Status: 404}
	}), p, Options{Logger: zerolog.Nop()})

	ctrl, err := scanner.New(config.ScanConfig{
		SampleInterval:       time.Millisecond,
		DecodeEvery:          1,
		DuplicateSuppression: time.Hour,
	}, scanner.Deps{
		Source:     staticSource{},
		Decoder:    constDecoder("123"),
		Dispatcher: d,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	require.NoError(t, ctrl.Start(context.Background()))
	require.Eventually(t, func() bool { return p.has("not_found", "123") }, 2*time.Second, time.Millisecond)
	assert.True(t, ctrl.IsRunning(), "a failed lookup does not stop the scanner")
	assert.Equal(t, "123", ctrl.LastDecodedValue())

	ctrl.Stop()
	shutdown(t, d)
	assert.Equal(t, []call{{"searching", "123"}, {"not_found", "123"}}, p.snapshot())
}
