// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"
	"time"

	"github.com/ManuGH/codescan/internal/validate"
)

var knownFormats = []string{"qr", "ean", "upc", "code128"}

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	// Scan loop: every interval is a non-negative number of milliseconds.
	nonNegativeMs(v, "Scan.SampleIntervalMs", cfg.Scan.SampleInterval)
	nonNegativeMs(v, "Scan.IdleTimeoutMs", cfg.Scan.IdleTimeout)
	nonNegativeMs(v, "Scan.DuplicateSuppressionMs", cfg.Scan.DuplicateSuppression)
	v.Positive("Scan.DecodeEvery", cfg.Scan.DecodeEvery)
	v.OneOf("Scan.FacingMode", cfg.Scan.FacingMode, []string{FacingFront, FacingEnvironment})

	v.OneOf("Capture.Source", cfg.Capture.Source, []string{SourceFFmpeg, SourceStills})
	switch cfg.Capture.Source {
	case SourceFFmpeg:
		v.NotEmpty("Capture.Device", cfg.Capture.Device)
		v.NotEmpty("Capture.FFmpegBin", cfg.Capture.FFmpegBin)
		v.Range("Capture.Width", cfg.Capture.Width, 16, 7680)
		v.Range("Capture.Height", cfg.Capture.Height, 16, 4320)
		v.Range("Capture.FPS", cfg.Capture.FPS, 1, 120)
	case SourceStills:
		v.Directory("Capture.StillsDir", cfg.Capture.StillsDir)
	}
	nonNegativeMs(v, "Capture.StopGraceMs", cfg.Capture.StopGrace)

	if len(cfg.Decode.Formats) == 0 {
		v.AddError("Decode.Formats", "at least one format is required", cfg.Decode.Formats)
	}
	for _, f := range cfg.Decode.Formats {
		v.OneOf("Decode.Formats", f, knownFormats)
	}

	// Lookup base URL is optional: without it every confirmed code resolves as not found.
	if strings.TrimSpace(cfg.Lookup.BaseURL) != "" {
		v.URL("Lookup.BaseURL", cfg.Lookup.BaseURL, []string{"http", "https"})
	}
	if !strings.Contains(cfg.Lookup.PathTemplate, "{code}") {
		v.AddError("Lookup.PathTemplate", "must contain the {code} placeholder", cfg.Lookup.PathTemplate)
	}
	nonNegativeMs(v, "Lookup.TimeoutMs", cfg.Lookup.Timeout)
	nonNegativeMs(v, "Lookup.CacheTTLMs", cfg.Lookup.CacheTTL)
	nonNegativeMs(v, "Lookup.BreakerResetMs", cfg.Lookup.BreakerReset)
	v.NonNegative("Lookup.BreakerThreshold", cfg.Lookup.BreakerThreshold)

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{CacheMemory, CacheRedis, CacheNone})
	if cfg.Cache.Backend == CacheRedis {
		v.NotEmpty("Cache.Redis.Addr", cfg.Cache.Redis.Addr)
		v.Range("Cache.Redis.DB", cfg.Cache.Redis.DB, 0, 15)
	}

	if cfg.Select.WebhookURL != "" {
		v.URL("Select.WebhookURL", cfg.Select.WebhookURL, []string{"http", "https"})
	}
	nonNegativeMs(v, "Select.TimeoutMs", cfg.Select.Timeout)

	v.OneOf("Feedback.Bell", cfg.Feedback.Bell, []string{"stderr", "none"})

	v.ListenAddr("API.ListenAddr", cfg.API.ListenAddr)
	v.NonNegative("API.RateLimitPerMinute", cfg.API.RateLimitPerMinute)

	v.LogLevel("Log.Level", cfg.Log.Level)

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}

func nonNegativeMs(v *validate.Validator, field string, d time.Duration) {
	v.NonNegative(field, int(d.Milliseconds()))
}
