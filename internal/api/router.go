// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the scanner over a small JSON control surface.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/codescan/internal/api/middleware"
	"github.com/ManuGH/codescan/internal/health"
	"github.com/ManuGH/codescan/internal/present"
	"github.com/ManuGH/codescan/internal/scanner"
)

// Scanner is the part of the lifecycle controller the API drives.
type Scanner interface {
	Start(ctx context.Context) error
	Stop()
	Status() scanner.Status
}

// Results provides the latest presentation state.
type Results interface {
	Snapshot() present.View
}

// Deps are the collaborators of the router.
type Deps struct {
	Scanner Scanner
	Results Results
	Health  *health.Manager
	// Metrics serves /metrics. Defaults to promhttp.Handler().
	Metrics http.Handler

	ServiceName        string
	RateLimitPerMinute int
	Logger             zerolog.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Scanner == nil:
		return errors.New("api: scanner is required")
	case d.Results == nil:
		return errors.New("api: results source is required")
	case d.Health == nil:
		return errors.New("api: health manager is required")
	}
	return nil
}

// NewRouter builds the HTTP handler tree.
func NewRouter(deps Deps) (http.Handler, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "codescan"
	}

	h := &handlers{scanner: deps.Scanner, results: deps.Results, logger: deps.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Metrics())
	r.Use(middleware.OTelHTTP(deps.ServiceName))
	r.Use(middleware.SecurityHeaders)
	r.NotFound(writeNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Get("/healthz", deps.Health.ServeHealth)
	r.Get("/readyz", deps.Health.ServeReady)
	r.Method(http.MethodGet, "/metrics", deps.Metrics)

	r.Route("/api/v1/scanner", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Get("/result", h.result)
		r.Group(func(r chi.Router) {
			r.Use(middleware.ControlRateLimit(deps.RateLimitPerMinute))
			r.Post("/start", h.start)
			r.Post("/stop", h.stop)
		})
	})

	return r, nil
}
