// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/ManuGH/codescan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, provider.tp)

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ServiceName: "codescan", ExporterType: "invalid"})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: invalid (supported: grpc, http)", err.Error())
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", sampler(1.0).Description())
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestConfigFrom(t *testing.T) {
	cfg := config.AppConfig{Version: "1.2.3"}
	cfg.Log.Service = "codescan"
	cfg.Telemetry = config.TelemetryConfig{Enabled: true, Exporter: "http", Endpoint: "otel:4318", SamplingRate: 0.25}

	got := ConfigFrom(cfg)
	assert.Equal(t, Config{
		Enabled:        true,
		ServiceName:    "codescan",
		ServiceVersion: "1.2.3",
		ExporterType:   "http",
		Endpoint:       "otel:4318",
		SamplingRate:   0.25,
	}, got)
}

func TestScanAttributes(t *testing.T) {
	attrs := ScanAttributes("123", "", "s1")
	require.Len(t, attrs, 2)
	assert.Equal(t, ScanCodeKey, string(attrs[0].Key))
	assert.Equal(t, ScanSessionIDKey, string(attrs[1].Key))

	assert.Len(t, LookupAttributes(true, false), 2)
	assert.Len(t, ErrorAttributes("not_found"), 2)
}
