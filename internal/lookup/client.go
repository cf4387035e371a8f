// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package lookup resolves decoded values to records via the HTTP lookup
// service.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/codescan/internal/cache"
	xglog "github.com/ManuGH/codescan/internal/log"
	"github.com/ManuGH/codescan/internal/metrics"
	"github.com/ManuGH/codescan/internal/resilience"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultPathTemplate is appended to the base URL; {code} is replaced by
	// the path-escaped value.
	DefaultPathTemplate = "/resource/lookup/{code}"

	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
	maxErrorBody   = 256
)

// Options configures a Client.
type Options struct {
	BaseURL          string
	PathTemplate     string
	Timeout          time.Duration
	CacheTTL         time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration

	Cache      cache.Cache  // optional
	HTTPClient *http.Client // optional; defaults to an otelhttp-instrumented client
	Logger     zerolog.Logger
}

// Client performs record lookups.
type Client struct {
	base     string
	template string
	timeout  time.Duration
	ttl      time.Duration
	http     *http.Client
	cache    cache.Cache
	breaker  *resilience.CircuitBreaker
	logger   zerolog.Logger
}

// NewClient returns a Client for opts.BaseURL.
func NewClient(opts Options) *Client {
	tpl := opts.PathTemplate
	if tpl == "" {
		tpl = DefaultPathTemplate
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	c := opts.Cache
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Client{
		base:     strings.TrimRight(opts.BaseURL, "/"),
		template: tpl,
		timeout:  timeout,
		ttl:      opts.CacheTTL,
		http:     hc,
		cache:    c,
		breaker: resilience.NewCircuitBreaker("lookup", opts.BreakerThreshold, opts.BreakerReset,
			resilience.WithFailurePredicate(func(err error) bool { return !errors.Is(err, ErrNotFound) })),
		logger: opts.Logger,
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *resilience.CircuitBreaker { return c.breaker }

// URL returns the request URL for code.
func (c *Client) URL(code string) string {
	return c.base + strings.ReplaceAll(c.template, "{code}", url.PathEscape(code))
}

// Lookup resolves code. Failures are *Error values wrapping a sentinel, or
// resilience.ErrCircuitOpen while the breaker is open.
func (c *Client) Lookup(ctx context.Context, code string) (Record, error) {
	start := time.Now()

	if body, ok := c.cache.Get(ctx, code); ok {
		metrics.ObserveLookup("cache_hit", time.Since(start))
		return Record{Code: code, Body: body, Cached: true}, nil
	}

	var rec Record
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var ferr error
		rec, ferr = c.fetch(ctx, code)
		return ferr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		metrics.ObserveLookup("circuit_open", time.Since(start))
		return Record{}, err
	}
	metrics.ObserveLookup(resultLabel(err), time.Since(start))
	if err != nil {
		return Record{}, err
	}

	c.cache.Set(ctx, code, rec.Body, c.ttl)
	return rec, nil
}

func (c *Client) fetch(ctx context.Context, code string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.URL(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Record{}, &Error{Sentinel: ErrUnavailable, Code: code, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	logger := c.logger.With().Str(xglog.FieldCode, code).Str(xglog.FieldURL, u).Logger()

	resp, err := c.http.Do(req)
	if err != nil {
		sentinel := ErrUnavailable
		if isTimeout(err) {
			sentinel = ErrTimeout
		}
		logger.Debug().Err(err).Msg("lookup request failed")
		return Record{}, &Error{Sentinel: sentinel, Code: code, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		sentinel := ErrUnavailable
		if isTimeout(err) {
			sentinel = ErrTimeout
		}
		return Record{}, &Error{Sentinel: sentinel, Code: code, Status: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		logger.Debug().Int(xglog.FieldStatus, resp.StatusCode).Msg("record not found")
		return Record{}, &Error{Sentinel: ErrNotFound, Code: code, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		logger.Warn().Int(xglog.FieldStatus, resp.StatusCode).Msg("lookup returned error status")
		return Record{}, &Error{Sentinel: ErrUpstreamError, Code: code, Status: resp.StatusCode, Body: snippet(body)}
	case !gjson.ValidBytes(body):
		return Record{}, &Error{Sentinel: ErrBadResponse, Code: code, Status: resp.StatusCode, Body: snippet(body)}
	}

	logger.Debug().Int(xglog.FieldStatus, resp.StatusCode).Int("bytes", len(body)).Msg("record resolved")
	return Record{Code: code, Body: body}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

// Unconfigured answers every lookup with ErrUnavailable. It stands in when
// no lookup service is configured.
type Unconfigured struct{}

func (Unconfigured) Lookup(_ context.Context, code string) (Record, error) {
	return Record{}, &Error{Sentinel: ErrUnavailable, Code: code, Err: fmt.Errorf("no lookup service configured")}
}
