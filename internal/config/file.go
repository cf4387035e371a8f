// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	loader := NewLoader(path, "")
	return loader.loadFile(path)
}

// ToFileConfig renders a resolved AppConfig back into its YAML form.
// Secrets are omitted.
func ToFileConfig(cfg AppConfig) FileConfig {
	return FileConfig{
		Scan: ScanFileConfig{
			SampleIntervalMs:       msPtr(cfg.Scan.SampleInterval),
			DecodeEvery:            ptr(cfg.Scan.DecodeEvery),
			IdleTimeoutMs:          msPtr(cfg.Scan.IdleTimeout),
			DuplicateSuppressionMs: msPtr(cfg.Scan.DuplicateSuppression),
			AutoStart:              ptr(cfg.Scan.AutoStart),
			AutoSelect:             ptr(cfg.Scan.AutoSelect),
			FacingMode:             cfg.Scan.FacingMode,
			Feedback: ScanFeedbackFileCfg{
				Beep:    ptr(cfg.Scan.Beep),
				Vibrate: ptr(cfg.Scan.Vibrate),
			},
		},
		Capture: CaptureFileConfig{
			Source:      cfg.Capture.Source,
			Device:      cfg.Capture.Device,
			Devices:     cfg.Capture.Devices,
			InputFormat: cfg.Capture.InputFormat,
			Width:       ptr(cfg.Capture.Width),
			Height:      ptr(cfg.Capture.Height),
			FPS:         ptr(cfg.Capture.FPS),
			FFmpegBin:   cfg.Capture.FFmpegBin,
			StillsDir:   cfg.Capture.StillsDir,
			StopGraceMs: msPtr(cfg.Capture.StopGrace),
		},
		Decode: DecodeFileConfig{
			Formats:   cfg.Decode.Formats,
			TryHarder: ptr(cfg.Decode.TryHarder),
		},
		Lookup: LookupFileConfig{
			BaseURL:          cfg.Lookup.BaseURL,
			PathTemplate:     cfg.Lookup.PathTemplate,
			TimeoutMs:        msPtr(cfg.Lookup.Timeout),
			CacheTTLMs:       msPtr(cfg.Lookup.CacheTTL),
			BreakerThreshold: ptr(cfg.Lookup.BreakerThreshold),
			BreakerResetMs:   msPtr(cfg.Lookup.BreakerReset),
		},
		Cache: CacheFileConfig{
			Backend: cfg.Cache.Backend,
			Redis: RedisFileConfig{
				Addr: cfg.Cache.Redis.Addr,
				DB:   ptr(cfg.Cache.Redis.DB),
			},
		},
		Select: SelectFileConfig{
			WebhookURL: cfg.Select.WebhookURL,
			TimeoutMs:  msPtr(cfg.Select.Timeout),
		},
		Feedback: FeedbackFileConfig{
			Bell:           cfg.Feedback.Bell,
			VibrateCommand: cfg.Feedback.VibrateCommand,
		},
		API: APIFileConfig{
			ListenAddr:         cfg.API.ListenAddr,
			RateLimitPerMinute: ptr(cfg.API.RateLimitPerMinute),
		},
		Log: LogFileConfig{
			Level:      cfg.Log.Level,
			Service:    cfg.Log.Service,
			File:       cfg.Log.File,
			MaxSizeMB:  ptr(cfg.Log.MaxSizeMB),
			MaxBackups: ptr(cfg.Log.MaxBackups),
		},
		Telemetry: TelemetryFileConfig{
			Enabled:      ptr(cfg.Telemetry.Enabled),
			Exporter:     cfg.Telemetry.Exporter,
			Endpoint:     cfg.Telemetry.Endpoint,
			SamplingRate: ptr(cfg.Telemetry.SamplingRate),
		},
	}
}

// WriteFileConfig atomically writes fc as YAML to path.
func WriteFileConfig(path string, fc FileConfig) error {
	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write config data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func msPtr(d time.Duration) *int {
	n := int(d.Milliseconds())
	return &n
}
