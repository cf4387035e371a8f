// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/codescan/internal/capture"
	xglog "github.com/ManuGH/codescan/internal/log"
)

// Starter is the scanner lifecycle as seen by the daemon.
type Starter interface {
	Start(ctx context.Context) error
}

// App owns the long-lived runtime lifecycle and delegates server
// management to Manager.
type App struct {
	logger    zerolog.Logger
	manager   Manager
	scanner   Starter
	autoStart bool
}

// NewApp creates a new App orchestrator. When autoStart is set the scanner
// is started once the server is up.
func NewApp(logger zerolog.Logger, manager Manager, scanner Starter, autoStart bool) *App {
	return &App{
		logger:    logger,
		manager:   manager,
		scanner:   scanner,
		autoStart: autoStart,
	}
}

// Run starts all owned subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := a.manager.Start(gctx)
		if err != nil {
			_ = a.manager.Shutdown(context.WithoutCancel(gctx))
		}
		return err
	})

	if a.autoStart && a.scanner != nil {
		g.Go(func() error {
			a.startScanner(gctx)
			return nil
		})
	}

	return g.Wait()
}

// startScanner is best-effort: a camera that cannot be acquired leaves the
// daemon serving so a client can retry through the API.
func (a *App) startScanner(ctx context.Context) {
	err := a.scanner.Start(ctx)
	if err == nil {
		a.logger.Info().Str(xglog.FieldEvent, "scanner.autostart").Msg("scanner started at boot")
		return
	}
	evt := a.logger.Warn().Err(err).Str(xglog.FieldEvent, "scanner.autostart_failed")
	var acqErr *capture.AcquisitionError
	if errors.As(err, &acqErr) {
		evt = evt.Str(xglog.FieldReason, acqErr.Reason)
	}
	evt.Msg("scanner could not be started at boot")
}
