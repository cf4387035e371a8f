// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"

	"github.com/ManuGH/codescan/internal/config"
	"github.com/ManuGH/codescan/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the daemon serves.
// Missing capture hardware is only warned about; a misconfigured toolchain
// or lookup endpoint is fatal.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkCapture(logger, cfg.Capture); err != nil {
		return fmt.Errorf("capture check failed: %w", err)
	}
	if err := checkLookup(logger, cfg.Lookup); err != nil {
		return fmt.Errorf("lookup check failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkCapture(logger zerolog.Logger, cfg config.CaptureConfig) error {
	switch cfg.Source {
	case config.SourceFFmpeg:
		bin := cfg.FFmpegBin
		if bin == "" {
			bin = "ffmpeg"
		}
		path, err := exec.LookPath(bin)
		if err != nil {
			return fmt.Errorf("ffmpeg binary %q not found: %w", bin, err)
		}
		logger.Debug().Str("ffmpeg", path).Msg("ffmpeg located")
		if cfg.InputFormat == "v4l2" {
			if _, err := os.Stat(cfg.Device); err != nil {
				logger.Warn().Err(err).Str(log.FieldDevice, cfg.Device).Msg("capture device not present yet")
			}
		}
	case config.SourceStills:
		info, err := os.Stat(cfg.StillsDir)
		if err != nil {
			return fmt.Errorf("stills directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("stills path is not a directory: %s", cfg.StillsDir)
		}
	default:
		return fmt.Errorf("unknown capture source %q", cfg.Source)
	}
	return nil
}

func checkLookup(logger zerolog.Logger, cfg config.LookupConfig) error {
	if cfg.BaseURL == "" {
		logger.Warn().Msg("no lookup service configured, every scan will report not found")
		return nil
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url must be http(s): %s", cfg.BaseURL)
	}
	return nil
}
