// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package selecthook delivers auto-selected records to an external system.
package selecthook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	xglog "github.com/ManuGH/codescan/internal/log"
	"github.com/ManuGH/codescan/internal/lookup"
	"github.com/rs/zerolog"
	"github.com/tidwall/sjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 5 * time.Second

// Webhook POSTs {code, selectedAt, record} to URL.
type Webhook struct {
	url     string
	client  *http.Client
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// NewWebhook returns a Webhook. A nil client gets an instrumented default.
func NewWebhook(url string, timeout time.Duration, client *http.Client, logger zerolog.Logger) *Webhook {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Webhook{url: url, client: client, timeout: timeout, logger: logger, now: time.Now}
}

// Payload builds the request body for rec.
func Payload(rec lookup.Record, at time.Time) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "code", rec.Code)
	if err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "selectedAt", at.UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, err
	}
	raw := rec.Body
	if len(raw) == 0 {
		raw = []byte("null")
	}
	return sjson.SetRawBytes(body, "record", raw)
}

// Select delivers rec. Any non-2xx answer is an error.
func (w *Webhook) Select(ctx context.Context, rec lookup.Record) error {
	body, err := Payload(rec, w.now())
	if err != nil {
		return fmt.Errorf("build select payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build select request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post select hook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("select hook returned HTTP %d", resp.StatusCode)
	}
	w.logger.Debug().Str(xglog.FieldCode, rec.Code).Int(xglog.FieldStatus, resp.StatusCode).Msg("record selected")
	return nil
}
