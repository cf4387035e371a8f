// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/codescan/internal/config"
	"github.com/ManuGH/codescan/internal/daemon"
	"github.com/ManuGH/codescan/internal/health"
	xglog "github.com/ManuGH/codescan/internal/log"
	"github.com/ManuGH/codescan/internal/version"
)

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "codescan",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		effectiveConfigPath = resolveDefaultConfigPath()
	}

	cfg, err := config.NewLoader(effectiveConfigPath, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:      cfg.Log.Level,
		Service:    cfg.Log.Service,
		Version:    cfg.Version,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer func() { _ = xglog.Close() }()
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if effectiveConfigPath != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str(xglog.FieldSource, source).
		Str("path", effectiveConfigPath).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "startup.check_failed").
			Msg("startup checks failed, verify configuration and permissions")
	}

	logger.Info().
		Str(xglog.FieldEvent, "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.API.ListenAddr).
		Msg("starting codescand")
	logger.Info().Msgf("→ Capture: %s (%s)", cfg.Capture.Source, captureTarget(cfg.Capture, cfg.Scan.FacingMode))
	logger.Info().Msgf("→ Decode: %s", strings.Join(cfg.Decode.Formats, ","))
	if cfg.Lookup.BaseURL != "" {
		logger.Info().Msgf("→ Lookup: %s (cache: %s)", maskURL(cfg.Lookup.BaseURL), cfg.Cache.Backend)
	} else {
		logger.Warn().Msg("→ Lookup: NOT configured, every code resolves as not found")
	}
	if cfg.Scan.AutoSelect {
		logger.Info().Msgf("→ Auto-select: %s", maskURL(cfg.Select.WebhookURL))
	}

	rt, err := buildRuntime(ctx, cfg, os.Stderr)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "runtime.build_failed").
			Msg("failed to build runtime")
	}

	mgr, err := daemon.NewManager(daemon.ServerConfigFrom(cfg.API), daemon.Deps{
		Logger:     logger,
		APIHandler: rt.handler,
	})
	if err != nil {
		rt.closeAll(context.Background())
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "manager.creation.failed").
			Msg("failed to create daemon manager")
	}
	rt.registerShutdownHooks(mgr)

	app := daemon.NewApp(logger, mgr, rt.scanner, cfg.Scan.AutoStart)
	if err := app.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "manager.failed").
			Msg("daemon app failed")
		_ = xglog.Close()
		os.Exit(1)
	}

	logger.Info().Msg("server exiting")
}

func captureTarget(cfg config.CaptureConfig, facing string) string {
	if cfg.Source == config.SourceStills {
		return cfg.StillsDir
	}
	return cfg.DeviceFor(facing)
}
