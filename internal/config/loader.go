// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envMs(key string, defaultVal time.Duration) time.Duration {
	return ms(l.envInt(key, int(defaultVal.Milliseconds())))
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults,
// then validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Scan: ScanConfig{
			SampleInterval:       10 * time.Millisecond,
			DecodeEvery:          10,
			IdleTimeout:          60 * time.Second,
			DuplicateSuppression: 2 * time.Second,
			FacingMode:           FacingEnvironment,
			Beep:                 true,
		},
		Capture: CaptureConfig{
			Source:      SourceFFmpeg,
			Device:      "/dev/video0",
			InputFormat: "v4l2",
			Width:       640,
			Height:      480,
			FPS:         15,
			FFmpegBin:   "ffmpeg",
			StopGrace:   2 * time.Second,
		},
		Decode: DecodeConfig{
			Formats: []string{"qr", "ean", "upc", "code128"},
		},
		Lookup: LookupConfig{
			PathTemplate:     "/resource/lookup/{code}",
			Timeout:          5 * time.Second,
			CacheTTL:         5 * time.Minute,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
		},
		Select: SelectConfig{
			Timeout: 5 * time.Second,
		},
		Feedback: FeedbackConfig{
			Bell: "stderr",
		},
		API: APIConfig{
			ListenAddr:         ":8088",
			RateLimitPerMinute: 120,
		},
		Log: LogConfig{
			Level:      "info",
			Service:    "codescan",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			SamplingRate: 1.0,
		},
	}
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFileConfig(data)
}

func parseFileConfig(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrMultipleDocuments
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) {
	setMs(&cfg.Scan.SampleInterval, f.Scan.SampleIntervalMs)
	setInt(&cfg.Scan.DecodeEvery, f.Scan.DecodeEvery)
	setMs(&cfg.Scan.IdleTimeout, f.Scan.IdleTimeoutMs)
	setMs(&cfg.Scan.DuplicateSuppression, f.Scan.DuplicateSuppressionMs)
	setBool(&cfg.Scan.AutoStart, f.Scan.AutoStart)
	setBool(&cfg.Scan.AutoSelect, f.Scan.AutoSelect)
	setString(&cfg.Scan.FacingMode, f.Scan.FacingMode)
	setBool(&cfg.Scan.Beep, f.Scan.Feedback.Beep)
	setBool(&cfg.Scan.Vibrate, f.Scan.Feedback.Vibrate)

	setString(&cfg.Capture.Source, f.Capture.Source)
	setString(&cfg.Capture.Device, f.Capture.Device)
	setString(&cfg.Capture.Devices.Front, f.Capture.Devices.Front)
	setString(&cfg.Capture.Devices.Environment, f.Capture.Devices.Environment)
	setString(&cfg.Capture.InputFormat, f.Capture.InputFormat)
	setInt(&cfg.Capture.Width, f.Capture.Width)
	setInt(&cfg.Capture.Height, f.Capture.Height)
	setInt(&cfg.Capture.FPS, f.Capture.FPS)
	setString(&cfg.Capture.FFmpegBin, f.Capture.FFmpegBin)
	setString(&cfg.Capture.StillsDir, f.Capture.StillsDir)
	setMs(&cfg.Capture.StopGrace, f.Capture.StopGraceMs)

	if len(f.Decode.Formats) > 0 {
		cfg.Decode.Formats = append([]string(nil), f.Decode.Formats...)
	}
	setBool(&cfg.Decode.TryHarder, f.Decode.TryHarder)

	setString(&cfg.Lookup.BaseURL, f.Lookup.BaseURL)
	setString(&cfg.Lookup.PathTemplate, f.Lookup.PathTemplate)
	setMs(&cfg.Lookup.Timeout, f.Lookup.TimeoutMs)
	setMs(&cfg.Lookup.CacheTTL, f.Lookup.CacheTTLMs)
	setInt(&cfg.Lookup.BreakerThreshold, f.Lookup.BreakerThreshold)
	setMs(&cfg.Lookup.BreakerReset, f.Lookup.BreakerResetMs)

	setString(&cfg.Cache.Backend, f.Cache.Backend)
	setString(&cfg.Cache.Redis.Addr, f.Cache.Redis.Addr)
	setString(&cfg.Cache.Redis.Password, f.Cache.Redis.Password)
	setInt(&cfg.Cache.Redis.DB, f.Cache.Redis.DB)

	setString(&cfg.Select.WebhookURL, f.Select.WebhookURL)
	setMs(&cfg.Select.Timeout, f.Select.TimeoutMs)

	setString(&cfg.Feedback.Bell, f.Feedback.Bell)
	if len(f.Feedback.VibrateCommand) > 0 {
		cfg.Feedback.VibrateCommand = append([]string(nil), f.Feedback.VibrateCommand...)
	}

	setString(&cfg.API.ListenAddr, f.API.ListenAddr)
	setInt(&cfg.API.RateLimitPerMinute, f.API.RateLimitPerMinute)

	setString(&cfg.Log.Level, f.Log.Level)
	setString(&cfg.Log.Service, f.Log.Service)
	setString(&cfg.Log.File, f.Log.File)
	setInt(&cfg.Log.MaxSizeMB, f.Log.MaxSizeMB)
	setInt(&cfg.Log.MaxBackups, f.Log.MaxBackups)

	setBool(&cfg.Telemetry.Enabled, f.Telemetry.Enabled)
	setString(&cfg.Telemetry.Exporter, f.Telemetry.Exporter)
	setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
	if f.Telemetry.SamplingRate != nil {
		cfg.Telemetry.SamplingRate = *f.Telemetry.SamplingRate
	}
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	s := &cfg.Scan
	s.SampleInterval = l.envMs("SAMPLE_INTERVAL_MS", s.SampleInterval)
	s.DecodeEvery = l.envInt("DECODE_EVERY", s.DecodeEvery)
	s.IdleTimeout = l.envMs("IDLE_TIMEOUT_MS", s.IdleTimeout)
	s.DuplicateSuppression = l.envMs("DUPLICATE_SUPPRESSION_MS", s.DuplicateSuppression)
	s.AutoStart = l.envBool("AUTO_START", s.AutoStart)
	s.AutoSelect = l.envBool("AUTO_SELECT", s.AutoSelect)
	s.FacingMode = l.envString("FACING_MODE", s.FacingMode)
	s.Beep = l.envBool("FEEDBACK_BEEP", s.Beep)
	s.Vibrate = l.envBool("FEEDBACK_VIBRATE", s.Vibrate)

	c := &cfg.Capture
	c.Source = l.envString("CAPTURE_SOURCE", c.Source)
	c.Device = l.envString("CAPTURE_DEVICE", c.Device)
	c.Devices.Front = l.envString("CAPTURE_DEVICE_FRONT", c.Devices.Front)
	c.Devices.Environment = l.envString("CAPTURE_DEVICE_ENVIRONMENT", c.Devices.Environment)
	c.InputFormat = l.envString("CAPTURE_INPUT_FORMAT", c.InputFormat)
	c.Width = l.envInt("CAPTURE_WIDTH", c.Width)
	c.Height = l.envInt("CAPTURE_HEIGHT", c.Height)
	c.FPS = l.envInt("CAPTURE_FPS", c.FPS)
	c.FFmpegBin = l.envString("FFMPEG_BIN", c.FFmpegBin)
	c.StillsDir = l.envString("CAPTURE_STILLS_DIR", c.StillsDir)
	c.StopGrace = l.envMs("CAPTURE_STOP_GRACE_MS", c.StopGrace)

	cfg.Decode.Formats = l.envList("DECODE_FORMATS", cfg.Decode.Formats)
	cfg.Decode.TryHarder = l.envBool("DECODE_TRY_HARDER", cfg.Decode.TryHarder)

	lk := &cfg.Lookup
	lk.BaseURL = l.envString("LOOKUP_BASE_URL", lk.BaseURL)
	lk.PathTemplate = l.envString("LOOKUP_PATH_TEMPLATE", lk.PathTemplate)
	lk.Timeout = l.envMs("LOOKUP_TIMEOUT_MS", lk.Timeout)
	lk.CacheTTL = l.envMs("LOOKUP_CACHE_TTL_MS", lk.CacheTTL)
	lk.BreakerThreshold = l.envInt("LOOKUP_BREAKER_THRESHOLD", lk.BreakerThreshold)
	lk.BreakerReset = l.envMs("LOOKUP_BREAKER_RESET_MS", lk.BreakerReset)

	cfg.Cache.Backend = l.envString("CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.Redis.Addr = l.envString("REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Cache.Redis.Password = l.envString("REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = l.envInt("REDIS_DB", cfg.Cache.Redis.DB)

	cfg.Select.WebhookURL = l.envString("SELECT_WEBHOOK_URL", cfg.Select.WebhookURL)
	cfg.Select.Timeout = l.envMs("SELECT_TIMEOUT_MS", cfg.Select.Timeout)

	cfg.Feedback.Bell = l.envString("FEEDBACK_BELL", cfg.Feedback.Bell)
	if cmd := l.envString("VIBRATE_COMMAND", ""); cmd != "" {
		cfg.Feedback.VibrateCommand = strings.Fields(cmd)
	}

	cfg.API.ListenAddr = l.envString("LISTEN", cfg.API.ListenAddr)
	cfg.API.RateLimitPerMinute = l.envInt("API_RATE_LIMIT", cfg.API.RateLimitPerMinute)

	cfg.Log.Level = l.envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = l.envString("LOG_FILE", cfg.Log.File)

	cfg.Telemetry.Enabled = l.envBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setMs(dst *time.Duration, v *int) {
	if v != nil {
		*dst = ms(*v)
	}
}
