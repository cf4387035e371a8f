// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/codescan/internal/config"
	"github.com/ManuGH/codescan/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestManager_Health_NoCheckers(t *testing.T) {
	m := NewManager("v1.0.0")

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)
}

func TestManager_Health_WithCheckers(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestManager_Ready(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})
	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready, "degraded is still ready")

	m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})
	m.RegisterChecker(&mockChecker{name: "degraded2", status: StatusDegraded})
	resp = m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Status, "degraded never masks unhealthy")
}

func TestServeReady_StatusCodes(t *testing.T) {
	m := NewManager("v1")
	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})
	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Ready)
	assert.Equal(t, StatusUnhealthy, body.Checks["down"].Status)
}

func TestServeHealth_AlwaysOK(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "down", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, StatusUnhealthy, body.Status)
}

func TestPathChecker(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, StatusHealthy, NewPathChecker("dir", dir).Check(context.Background()).Status)
	assert.Equal(t, StatusDegraded, NewPathChecker("dev", filepath.Join(dir, "video0")).Check(context.Background()).Status)
	assert.Equal(t, StatusHealthy, NewPathChecker("none", "").Check(context.Background()).Status)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestBreakerChecker(t *testing.T) {
	cb := resilience.NewCircuitBreaker("health-test", 1, time.Minute, resilience.WithClock(&fakeClock{now: time.Now()}))
	c := NewBreakerChecker("lookup", cb)
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("boom") })
	res := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "open", res.Message)
}

type pinger struct{ err error }

func (p pinger) HealthCheck(context.Context) error { return p.err }

func TestPingChecker(t *testing.T) {
	assert.Equal(t, StatusHealthy, NewPingChecker("redis", pinger{}, StatusDegraded).Check(context.Background()).Status)

	res := NewPingChecker("redis", pinger{err: errors.New("refused")}, StatusDegraded).Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "refused", res.Error)
}

func TestPerformStartupChecks(t *testing.T) {
	dir := t.TempDir()
	cfg := config.AppConfig{
		Capture: config.CaptureConfig{Source: config.SourceStills, StillsDir: dir},
		Lookup:  config.LookupConfig{BaseURL: "http://lookup.local"},
	}
	require.NoError(t, PerformStartupChecks(context.Background(), cfg))

	bad := cfg
	bad.Lookup.BaseURL = "ftp://lookup.local"
	assert.Error(t, PerformStartupChecks(context.Background(), bad))

	missing := cfg
	missing.Capture.StillsDir = filepath.Join(dir, "nope")
	assert.Error(t, PerformStartupChecks(context.Background(), missing))

	noBin := cfg
	noBin.Capture = config.CaptureConfig{Source: config.SourceFFmpeg, FFmpegBin: filepath.Join(dir, "no-ffmpeg")}
	assert.Error(t, PerformStartupChecks(context.Background(), noBin))
}
