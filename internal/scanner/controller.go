// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/codescan/internal/capture"
	"github.com/ManuGH/codescan/internal/config"
	"github.com/ManuGH/codescan/internal/decode"
	xglog "github.com/ManuGH/codescan/internal/log"
	"github.com/ManuGH/codescan/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Stop reasons reported in Status and metrics.
const (
	StopReasonRequested  = "requested"
	StopReasonIdle       = "idle_timeout"
	StopReasonStreamLost = "stream_lost"
	StopReasonShutdown   = "shutdown"
)

const defaultSampleInterval = 10 * time.Millisecond

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("scanner: controller closed")

// Decoder yields at most one candidate per frame.
type Decoder interface {
	Decode(frame capture.Frame) (decode.Candidate, bool)
}

// Dispatcher receives confirmed events. Dispatch must not block.
type Dispatcher interface {
	Dispatch(ev ConfirmedEvent)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Source     capture.Source
	Decoder    Decoder
	Dispatcher Dispatcher
	Logger     zerolog.Logger

	// FrameWidth and FrameHeight are requested from the source; zero
	// leaves the size to the source.
	FrameWidth  int
	FrameHeight int

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Validate ensures all required collaborators are present.
func (d Deps) Validate() error {
	switch {
	case d.Source == nil:
		return errors.New("scanner: capture source is required")
	case d.Decoder == nil:
		return errors.New("scanner: decoder is required")
	case d.Dispatcher == nil:
		return errors.New("scanner: dispatcher is required")
	}
	return nil
}

// Status is a point-in-time view of the controller.
type Status struct {
	Running         bool      `json:"running"`
	SessionID       string    `json:"sessionId,omitempty"`
	StartedAt       time.Time `json:"startedAt,omitempty"`
	LastActivityAt  time.Time `json:"lastActivityAt,omitempty"`
	LastValue       string    `json:"lastValue,omitempty"`
	LastConfirmedAt time.Time `json:"lastConfirmedAt,omitempty"`
	Ticks           uint64    `json:"ticks"`
	Confirmed       uint64    `json:"confirmed"`
	Suppressed      uint64    `json:"suppressed"`
	StopReason      string    `json:"stopReason,omitempty"`
}

// Controller owns the capture stream and the scan loop.
type Controller struct {
	cfg    config.ScanConfig
	deps   Deps
	now    func() time.Time
	logger zerolog.Logger

	// opMu serializes Start and Stop. The loop never takes it.
	opMu sync.Mutex

	mu             sync.Mutex
	running        bool
	stream         capture.Stream
	sessionID      string
	startedAt      time.Time
	lastActivityAt time.Time
	filter         *Filter
	cancel         context.CancelFunc
	done           chan struct{}
	ticks          uint64
	confirmed      uint64
	suppressed     uint64
	stopReason     string
	closed         bool
}

// New builds a stopped Controller.
func New(cfg config.ScanConfig, deps Deps) (*Controller, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = defaultSampleInterval
	}
	if cfg.DecodeEvery < 1 {
		cfg.DecodeEvery = 1
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		cfg:    cfg,
		deps:   deps,
		now:    now,
		logger: deps.Logger,
		filter: NewFilter(cfg.DuplicateSuppression),
	}, nil
}

// Start acquires a capture stream and starts the scan loop. It is a no-op
// while running. Acquisition failures are returned as
// *capture.AcquisitionError and leave the controller stopped.
func (c *Controller) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.running {
		c.mu.Unlock()
		return nil
	}
	prev := c.done
	c.mu.Unlock()

	// A loop that stopped itself may still be releasing its stream.
	if prev != nil {
		<-prev
	}

	stream, err := c.deps.Source.Open(ctx, capture.Constraints{
		FacingMode: capture.FacingMode(c.cfg.FacingMode),
		Width:      c.deps.FrameWidth,
		Height:     c.deps.FrameHeight,
	})
	if err != nil {
		var acqErr *capture.AcquisitionError
		if !errors.As(err, &acqErr) {
			acqErr = &capture.AcquisitionError{Reason: capture.ReasonUnsupported, Err: err}
		}
		metrics.IncAcquisition(false, acqErr.Reason)
		c.logger.Warn().Err(err).Str(xglog.FieldReason, acqErr.Reason).Msg("capture acquisition failed")
		return acqErr
	}
	metrics.IncAcquisition(true, "none")

	now := c.now()
	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.running = true
	c.stream = stream
	c.sessionID = uuid.NewString()
	c.startedAt = now
	c.lastActivityAt = now
	c.filter.Reset()
	c.cancel = cancel
	c.done = done
	c.ticks, c.confirmed, c.suppressed = 0, 0, 0
	c.stopReason = ""
	sessionID := c.sessionID
	c.mu.Unlock()

	metrics.SessionActive.Set(1)
	logger := c.logger.With().Str(xglog.FieldSessionID, sessionID).Logger()
	logger.Info().
		Dur("sample_interval", c.cfg.SampleInterval).
		Int("decode_every", c.cfg.DecodeEvery).
		Dur("idle_timeout", c.cfg.IdleTimeout).
		Msg("scanner started")

	go c.loop(loopCtx, NewSampler(stream, c.cfg.DecodeEvery), done, logger)
	return nil
}

// Stop ends the session and releases the stream. Idempotent.
func (c *Controller) Stop() {
	c.stop(StopReasonRequested)
}

// Close stops the controller during process shutdown. Later Starts fail
// with ErrClosed.
func (c *Controller) Close() error {
	c.opMu.Lock()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.opMu.Unlock()

	c.stop(StopReasonShutdown)
	return nil
}

func (c *Controller) stop(reason string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	done := c.done
	if !c.running {
		c.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	stream := c.detachLocked(reason)
	c.mu.Unlock()

	<-done
	c.release(stream, reason)
}

// detachLocked flips the controller to stopped and hands back the stream
// for release. Caller holds c.mu and has checked running.
func (c *Controller) detachLocked(reason string) capture.Stream {
	c.running = false
	c.cancel()
	stream := c.stream
	c.stream = nil
	c.stopReason = reason
	return stream
}

func (c *Controller) release(stream capture.Stream, reason string) {
	for _, t := range stream.Tracks() {
		t.Stop()
	}
	if err := stream.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("capture stream close failed")
	}
	metrics.SessionActive.Set(0)
	metrics.IncScannerStop(reason)
	c.logger.Info().Str(xglog.FieldReason, reason).Msg("scanner stopped")
}

func (c *Controller) loop(ctx context.Context, sampler *Sampler, done chan struct{}, logger zerolog.Logger) {
	defer close(done)

	ticker := time.NewTicker(c.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}

		reason := c.tick(ctx, sampler, logger)
		if reason == "" {
			continue
		}

		c.mu.Lock()
		if !c.running {
			c.mu.Unlock()
			return
		}
		stream := c.detachLocked(reason)
		c.mu.Unlock()
		c.release(stream, reason)
		return
	}
}

// tick runs one loop iteration and returns a stop reason when the session
// must end.
func (c *Controller) tick(ctx context.Context, sampler *Sampler, logger zerolog.Logger) string {
	now := c.now()
	metrics.ScanTicks.Inc()

	c.mu.Lock()
	c.ticks++
	idle := c.cfg.IdleTimeout > 0 && now.Sub(c.lastActivityAt) > c.cfg.IdleTimeout
	c.mu.Unlock()
	if idle {
		logger.Info().Dur("idle_timeout", c.cfg.IdleTimeout).Msg("no frames within idle timeout, stopping")
		return StopReasonIdle
	}

	frame, ok, err := sampler.Next()
	if err != nil {
		logger.Warn().Err(err).Msg("capture stream lost")
		return StopReasonStreamLost
	}
	if !ok {
		return ""
	}

	// Every sampled frame counts as activity, with or without a code in view.
	c.mu.Lock()
	if c.running && ctx.Err() == nil {
		c.lastActivityAt = now
	}
	c.mu.Unlock()

	cand, ok := c.deps.Decoder.Decode(frame)
	if !ok {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || ctx.Err() != nil {
		return ""
	}

	ev, accepted := c.filter.Offer(cand, now)
	metrics.ObserveFilterDecision(accepted)
	if !accepted {
		c.suppressed++
		return ""
	}
	c.confirmed++
	ev.SessionID = c.sessionID
	logger.Info().
		Str(xglog.FieldCode, ev.Value).
		Str(xglog.FieldEventID, ev.ID).
		Msg("code confirmed")
	c.deps.Dispatcher.Dispatch(ev)
	return ""
}

// IsRunning reports whether a session is active.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// LastDecodedValue returns the last confirmed value of the current or most
// recent session.
func (c *Controller) LastDecodedValue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter.LastValue()
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Running:         c.running,
		SessionID:       c.sessionID,
		StartedAt:       c.startedAt,
		LastActivityAt:  c.lastActivityAt,
		LastValue:       c.filter.LastValue(),
		LastConfirmedAt: c.filter.LastAt(),
		Ticks:           c.ticks,
		Confirmed:       c.confirmed,
		Suppressed:      c.suppressed,
		StopReason:      c.stopReason,
	}
}
