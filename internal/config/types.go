// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// Facing modes accepted by scan.facingMode.
const (
	FacingFront       = "front"
	FacingEnvironment = "environment"
)

// Capture source kinds.
const (
	SourceFFmpeg = "ffmpeg"
	SourceStills = "stills"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// AppConfig is the resolved runtime configuration. It is immutable after Load.
type AppConfig struct {
	Version string

	Scan      ScanConfig
	Capture   CaptureConfig
	Decode    DecodeConfig
	Lookup    LookupConfig
	Cache     CacheConfig
	Select    SelectConfig
	Feedback  FeedbackConfig
	API       APIConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// ScanConfig holds the tunables of the acquisition loop.
type ScanConfig struct {
	// SampleInterval is the delay between loop ticks.
	SampleInterval time.Duration
	// DecodeEvery attempts a decode on every Nth tick only.
	DecodeEvery int
	// IdleTimeout stops the scanner after no decode activity. 0 disables.
	IdleTimeout time.Duration
	// DuplicateSuppression is the window in which an identical value is not re-confirmed.
	DuplicateSuppression time.Duration

	AutoStart  bool
	AutoSelect bool
	FacingMode string

	Beep    bool
	Vibrate bool
}

// CaptureConfig selects and parameterises the frame source.
type CaptureConfig struct {
	Source      string
	Device      string
	Devices     CaptureDevices // per facing mode; Device is the fallback
	InputFormat string         // ffmpeg -f value, e.g. "v4l2" or "avfoundation"
	Width       int
	Height      int
	FPS         int
	FFmpegBin   string
	StillsDir   string
	StopGrace   time.Duration
}

// CaptureDevices names the device used for each facing mode.
type CaptureDevices struct {
	Front       string `yaml:"front,omitempty"`
	Environment string `yaml:"environment,omitempty"`
}

// DeviceFor returns the device for a facing mode, falling back to Device.
func (c CaptureConfig) DeviceFor(facing string) string {
	switch facing {
	case FacingFront:
		if c.Devices.Front != "" {
			return c.Devices.Front
		}
	case FacingEnvironment:
		if c.Devices.Environment != "" {
			return c.Devices.Environment
		}
	}
	return c.Device
}

// DecodeConfig controls the decode primitive.
type DecodeConfig struct {
	Formats   []string
	TryHarder bool
}

// LookupConfig configures the remote record lookup collaborator.
type LookupConfig struct {
	BaseURL          string
	PathTemplate     string
	Timeout          time.Duration
	CacheTTL         time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
}

// CacheConfig selects where resolved records are cached.
type CacheConfig struct {
	Backend string
	Redis   RedisConfig
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SelectConfig configures the auto-select webhook.
type SelectConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// FeedbackConfig configures the audio and haptic effect backends.
type FeedbackConfig struct {
	Bell           string   // "stderr" or "none"
	VibrateCommand []string // argv executed for a vibrate pulse
}

// APIConfig configures the HTTP control surface.
type APIConfig struct {
	ListenAddr         string
	RateLimitPerMinute int
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level      string
	Service    string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// FileConfig represents the YAML configuration structure.
// Millisecond fields mirror the wire names operators already use.
type FileConfig struct {
	Scan      ScanFileConfig      `yaml:"scan,omitempty"`
	Capture   CaptureFileConfig   `yaml:"capture,omitempty"`
	Decode    DecodeFileConfig    `yaml:"decode,omitempty"`
	Lookup    LookupFileConfig    `yaml:"lookup,omitempty"`
	Cache     CacheFileConfig     `yaml:"cache,omitempty"`
	Select    SelectFileConfig    `yaml:"select,omitempty"`
	Feedback  FeedbackFileConfig  `yaml:"feedback,omitempty"`
	API       APIFileConfig       `yaml:"api,omitempty"`
	Log       LogFileConfig       `yaml:"log,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

// ScanFileConfig is the YAML form of ScanConfig.
type ScanFileConfig struct {
	SampleIntervalMs       *int                `yaml:"sampleIntervalMs,omitempty"`
	DecodeEvery            *int                `yaml:"decodeEvery,omitempty"`
	IdleTimeoutMs          *int                `yaml:"idleTimeoutMs,omitempty"`
	DuplicateSuppressionMs *int                `yaml:"duplicateSuppressionMs,omitempty"`
	AutoStart              *bool               `yaml:"autoStart,omitempty"`
	AutoSelect             *bool               `yaml:"autoSelect,omitempty"`
	FacingMode             string              `yaml:"facingMode,omitempty"`
	Feedback               ScanFeedbackFileCfg `yaml:"feedback,omitempty"`
}

// ScanFeedbackFileCfg toggles the feedback effects.
type ScanFeedbackFileCfg struct {
	Beep    *bool `yaml:"beep,omitempty"`
	Vibrate *bool `yaml:"vibrate,omitempty"`
}

// CaptureFileConfig is the YAML form of CaptureConfig.
type CaptureFileConfig struct {
	Source      string         `yaml:"source,omitempty"`
	Device      string         `yaml:"device,omitempty"`
	Devices     CaptureDevices `yaml:"devices,omitempty"`
	InputFormat string         `yaml:"inputFormat,omitempty"`
	Width       *int           `yaml:"width,omitempty"`
	Height      *int           `yaml:"height,omitempty"`
	FPS         *int           `yaml:"fps,omitempty"`
	FFmpegBin   string         `yaml:"ffmpegBin,omitempty"`
	StillsDir   string         `yaml:"stillsDir,omitempty"`
	StopGraceMs *int           `yaml:"stopGraceMs,omitempty"`
}

// DecodeFileConfig is the YAML form of DecodeConfig.
type DecodeFileConfig struct {
	Formats   []string `yaml:"formats,omitempty"`
	TryHarder *bool    `yaml:"tryHarder,omitempty"`
}

// LookupFileConfig is the YAML form of LookupConfig.
type LookupFileConfig struct {
	BaseURL          string `yaml:"baseUrl,omitempty"`
	PathTemplate     string `yaml:"pathTemplate,omitempty"`
	TimeoutMs        *int   `yaml:"timeoutMs,omitempty"`
	CacheTTLMs       *int   `yaml:"cacheTtlMs,omitempty"`
	BreakerThreshold *int   `yaml:"breakerThreshold,omitempty"`
	BreakerResetMs   *int   `yaml:"breakerResetMs,omitempty"`
}

// CacheFileConfig is the YAML form of CacheConfig.
type CacheFileConfig struct {
	Backend string          `yaml:"backend,omitempty"`
	Redis   RedisFileConfig `yaml:"redis,omitempty"`
}

// RedisFileConfig is the YAML form of RedisConfig.
type RedisFileConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
}

// SelectFileConfig is the YAML form of SelectConfig.
type SelectFileConfig struct {
	WebhookURL string `yaml:"webhookUrl,omitempty"`
	TimeoutMs  *int   `yaml:"timeoutMs,omitempty"`
}

// FeedbackFileConfig is the YAML form of FeedbackConfig.
type FeedbackFileConfig struct {
	Bell           string   `yaml:"bell,omitempty"`
	VibrateCommand []string `yaml:"vibrateCommand,omitempty"`
}

// APIFileConfig is the YAML form of APIConfig.
type APIFileConfig struct {
	ListenAddr         string `yaml:"listenAddr,omitempty"`
	RateLimitPerMinute *int   `yaml:"rateLimitPerMinute,omitempty"`
}

// LogFileConfig is the YAML form of LogConfig.
type LogFileConfig struct {
	Level      string `yaml:"level,omitempty"`
	Service    string `yaml:"service,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  *int   `yaml:"maxSizeMb,omitempty"`
	MaxBackups *int   `yaml:"maxBackups,omitempty"`
}

// TelemetryFileConfig is the YAML form of TelemetryConfig.
type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
