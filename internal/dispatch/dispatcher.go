// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dispatch acts on confirmed scan events: it fires feedback,
// resolves the code and reports the outcome to the presenter.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	xglog "github.com/ManuGH/codescan/internal/log"
	"github.com/ManuGH/codescan/internal/lookup"
	"github.com/ManuGH/codescan/internal/metrics"
	"github.com/ManuGH/codescan/internal/present"
	"github.com/ManuGH/codescan/internal/resilience"
	"github.com/ManuGH/codescan/internal/scanner"
	"github.com/ManuGH/codescan/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDispatchTimeout = 10 * time.Second
	tracerName             = "github.com/ManuGH/codescan/internal/dispatch"
)

// Lookuper resolves a decoded value.
type Lookuper interface {
	Lookup(ctx context.Context, code string) (lookup.Record, error)
}

// SelectFunc is invoked with a resolved record when auto-select is on.
type SelectFunc func(ctx context.Context, rec lookup.Record) error

// Options configures a Dispatcher.
type Options struct {
	Beep       Effect // nil disables
	Vibrate    Effect // nil disables
	AutoSelect bool
	Select     SelectFunc
	// Timeout bounds one dispatch including lookup and selection.
	Timeout time.Duration
	Logger  zerolog.Logger
	Tracer  trace.Tracer
}

// Dispatcher runs one goroutine per confirmed event. Dispatches share no
// result state and may overlap.
type Dispatcher struct {
	lookup    Lookuper
	presenter present.Presenter
	opts      Options
	tracer    trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ scanner.Dispatcher = (*Dispatcher)(nil)

// New returns a Dispatcher.
func New(l Lookuper, p present.Presenter, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultDispatchTimeout
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		lookup:    l,
		presenter: p,
		opts:      opts,
		tracer:    tracer,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Dispatch handles ev asynchronously and returns immediately.
func (d *Dispatcher) Dispatch(ev scanner.ConfirmedEvent) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.opts.Logger.Debug().Str(xglog.FieldEventID, ev.ID).Msg("dispatcher closed, event dropped")
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.run(ev)
	}()
}

func (d *Dispatcher) run(ev scanner.ConfirmedEvent) {
	metrics.DispatchInFlight.Inc()
	defer metrics.DispatchInFlight.Dec()

	ctx, cancel := context.WithTimeout(d.ctx, d.opts.Timeout)
	defer cancel()
	ctx = xglog.ContextWithEventID(ctx, ev.ID)
	ctx = xglog.ContextWithSessionID(ctx, ev.SessionID)

	ctx, span := d.tracer.Start(ctx, "scan.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(telemetry.ScanAttributes(ev.Value, ev.ID, ev.SessionID)...))
	defer span.End()

	logger := xglog.WithContext(ctx, d.opts.Logger).With().Str(xglog.FieldCode, ev.Value).Logger()

	d.fire(ctx, "beep", d.opts.Beep, logger)
	d.fire(ctx, "vibrate", d.opts.Vibrate, logger)

	d.presenter.ShowSearching(ev.Value)

	rec, err := d.lookup.Lookup(ctx, ev.Value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		span.SetAttributes(telemetry.LookupAttributes(false, false)...)
		span.SetAttributes(attribute.String(telemetry.LookupResultKey, lookupResult(err)))
		if errors.Is(err, lookup.ErrNotFound) {
			logger.Info().Msg("no record for code")
		} else {
			logger.Warn().Err(err).Msg("lookup failed")
		}
		d.presenter.ShowNotFound(ev.Value)
		return
	}
	span.SetAttributes(telemetry.LookupAttributes(true, rec.Cached)...)

	d.presenter.ShowResult(rec)

	if d.opts.AutoSelect && d.opts.Select != nil {
		err := d.opts.Select(ctx, rec)
		metrics.IncSelect(err)
		if err != nil {
			span.RecordError(err)
			logger.Warn().Err(err).Msg("select hook failed")
		}
	}
}

func lookupResult(err error) string {
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		return "not_found"
	case errors.Is(err, lookup.ErrTimeout):
		return "timeout"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	default:
		return "error"
	}
}

func (d *Dispatcher) fire(ctx context.Context, kind string, e Effect, logger zerolog.Logger) {
	if e == nil {
		return
	}
	err := e.Fire(ctx)
	metrics.IncFeedback(kind, err)
	if err != nil {
		logger.Debug().Err(err).Str("effect", kind).Msg("feedback failed")
	}
}

// Shutdown stops accepting events and waits for in-flight dispatches. When
// ctx ends first, outstanding dispatches are cancelled and awaited.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
