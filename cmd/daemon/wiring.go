// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ManuGH/codescan/internal/api"
	"github.com/ManuGH/codescan/internal/cache"
	"github.com/ManuGH/codescan/internal/capture"
	"github.com/ManuGH/codescan/internal/config"
	"github.com/ManuGH/codescan/internal/daemon"
	"github.com/ManuGH/codescan/internal/decode"
	"github.com/ManuGH/codescan/internal/dispatch"
	"github.com/ManuGH/codescan/internal/health"
	xglog "github.com/ManuGH/codescan/internal/log"
	"github.com/ManuGH/codescan/internal/lookup"
	"github.com/ManuGH/codescan/internal/present"
	"github.com/ManuGH/codescan/internal/scanner"
	"github.com/ManuGH/codescan/internal/selecthook"
	"github.com/ManuGH/codescan/internal/telemetry"
)

// runtime holds the wired collaborators of one daemon process.
type runtime struct {
	telemetry  *telemetry.Provider
	cache      cache.Cache
	dispatcher *dispatch.Dispatcher
	scanner    *scanner.Controller
	board      *present.Board
	health     *health.Manager
	handler    http.Handler
}

// buildRuntime wires the scanner pipeline and its HTTP surface from cfg.
// Feedback bells are written to bell.
func buildRuntime(ctx context.Context, cfg config.AppConfig, bell io.Writer) (*runtime, error) {
	rt := &runtime{board: present.NewBoard(), health: health.NewManager(cfg.Version)}

	tp, err := telemetry.NewProvider(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	rt.telemetry = tp

	rt.cache, err = newCache(ctx, cfg.Cache)
	if err != nil {
		rt.closeAll(ctx)
		return nil, fmt.Errorf("cache: %w", err)
	}
	if pinger, ok := rt.cache.(health.Pinger); ok {
		rt.health.RegisterChecker(health.NewPingChecker("cache", pinger, health.StatusDegraded))
	}

	lookuper := newLookuper(cfg.Lookup, rt.cache)
	if c, ok := lookuper.(*lookup.Client); ok {
		rt.health.RegisterChecker(health.NewBreakerChecker("lookup", c.Breaker()))
	}

	decodeFn, err := decode.ZXing(cfg.Decode.Formats...)
	if err != nil {
		rt.closeAll(ctx)
		return nil, fmt.Errorf("decoder: %w", err)
	}

	beep, vibrate := newFeedback(cfg, bell)
	rt.dispatcher = dispatch.New(lookuper, present.Multi{
		present.LogPresenter{Logger: xglog.WithComponent("present")},
		rt.board,
	}, dispatch.Options{
		Beep:       beep,
		Vibrate:    vibrate,
		AutoSelect: cfg.Scan.AutoSelect,
		Select:     newSelectFunc(cfg.Select),
		Logger:     xglog.WithComponent("dispatch"),
		Tracer:     telemetry.Tracer("codescan/dispatch"),
	})

	rt.scanner, err = scanner.New(cfg.Scan, scanner.Deps{
		Source:      newCaptureSource(cfg.Capture),
		Decoder:     decode.NewAdapter(decodeFn, decode.Options{TryHarder: cfg.Decode.TryHarder}, xglog.WithComponent("decode")),
		Dispatcher:  rt.dispatcher,
		Logger:      xglog.WithComponent("scanner"),
		FrameWidth:  cfg.Capture.Width,
		FrameHeight: cfg.Capture.Height,
	})
	if err != nil {
		rt.closeAll(ctx)
		return nil, fmt.Errorf("scanner: %w", err)
	}
	rt.health.RegisterChecker(health.NewPathChecker("capture", captureTarget(cfg.Capture, cfg.Scan.FacingMode)))
	rt.health.RegisterChecker(health.NewFuncChecker("scanner", func(context.Context) health.CheckResult {
		st := rt.scanner.Status()
		msg := "stopped"
		if st.Running {
			msg = "running"
		} else if st.StopReason != "" {
			msg = "stopped: " + st.StopReason
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: msg}
	}))

	rt.handler, err = api.NewRouter(api.Deps{
		Scanner:            rt.scanner,
		Results:            rt.board,
		Health:             rt.health,
		ServiceName:        cfg.Log.Service,
		RateLimitPerMinute: cfg.API.RateLimitPerMinute,
		Logger:             xglog.WithComponent("api"),
	})
	if err != nil {
		rt.closeAll(ctx)
		return nil, fmt.Errorf("api: %w", err)
	}
	return rt, nil
}

// registerShutdownHooks registers teardown so the LIFO hook order stops the
// scanner first, then drains dispatches, then closes the cache and tracing.
func (rt *runtime) registerShutdownHooks(mgr daemon.Manager) {
	mgr.RegisterShutdownHook("telemetry", rt.telemetry.Shutdown)
	mgr.RegisterShutdownHook("cache", func(context.Context) error { return rt.cache.Close() })
	mgr.RegisterShutdownHook("dispatcher", rt.dispatcher.Shutdown)
	mgr.RegisterShutdownHook("scanner", func(context.Context) error { return rt.scanner.Close() })
}

// closeAll releases whatever has been built, in shutdown order.
func (rt *runtime) closeAll(ctx context.Context) {
	if rt.scanner != nil {
		_ = rt.scanner.Close()
	}
	if rt.dispatcher != nil {
		_ = rt.dispatcher.Shutdown(ctx)
	}
	if rt.cache != nil {
		_ = rt.cache.Close()
	}
	if rt.telemetry != nil {
		_ = rt.telemetry.Shutdown(context.WithoutCancel(ctx))
	}
}

func newCaptureSource(cfg config.CaptureConfig) capture.Source {
	if cfg.Source == config.SourceStills {
		return &capture.StillSource{Dir: cfg.StillsDir}
	}
	return &capture.FFmpegSource{
		Bin:         cfg.FFmpegBin,
		Device:      cfg.Device,
		Devices:     captureDevices(cfg.Devices),
		InputFormat: cfg.InputFormat,
		Width:       cfg.Width,
		Height:      cfg.Height,
		FPS:         cfg.FPS,
		StopGrace:   cfg.StopGrace,
		Logger:      xglog.WithComponent("capture"),
	}
}

func captureDevices(d config.CaptureDevices) map[capture.FacingMode]string {
	m := make(map[capture.FacingMode]string, 2)
	if d.Front != "" {
		m[capture.FacingFront] = d.Front
	}
	if d.Environment != "" {
		m[capture.FacingEnvironment] = d.Environment
	}
	return m
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, xglog.WithComponent("cache"))
		if err != nil {
			return nil, err
		}
		return rc, nil
	case config.CacheNone:
		return cache.NewNoOpCache(), nil
	default:
		return cache.NewMemoryCache(time.Minute), nil
	}
}

func newLookuper(cfg config.LookupConfig, c cache.Cache) dispatch.Lookuper {
	if cfg.BaseURL == "" {
		return lookup.Unconfigured{}
	}
	return lookup.NewClient(lookup.Options{
		BaseURL:          cfg.BaseURL,
		PathTemplate:     cfg.PathTemplate,
		Timeout:          cfg.Timeout,
		CacheTTL:         cfg.CacheTTL,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerReset:     cfg.BreakerReset,
		Cache:            c,
		Logger:           xglog.WithComponent("lookup"),
	})
}

func newSelectFunc(cfg config.SelectConfig) dispatch.SelectFunc {
	if cfg.WebhookURL == "" {
		return nil
	}
	return selecthook.NewWebhook(cfg.WebhookURL, cfg.Timeout, nil, xglog.WithComponent("select")).Select
}

func newFeedback(cfg config.AppConfig, bell io.Writer) (beep, vibrate dispatch.Effect) {
	if cfg.Scan.Beep && cfg.Feedback.Bell != "none" {
		beep = dispatch.Bell{W: bell}
	}
	if cfg.Scan.Vibrate {
		if len(cfg.Feedback.VibrateCommand) == 0 {
			logger := xglog.WithComponent("dispatch")
			logger.Warn().Msg("vibrate enabled without feedback.vibrateCommand, haptics disabled")
		} else {
			vibrate = dispatch.Command{Argv: cfg.Feedback.VibrateCommand}
		}
	}
	return beep, vibrate
}
