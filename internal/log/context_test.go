// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextIDs(t *testing.T) {
	tests := []struct {
		name string
		set  func(context.Context, string) context.Context
		get  func(context.Context) string
	}{
		{"request", ContextWithRequestID, RequestIDFromContext},
		{"session", ContextWithSessionID, SessionIDFromContext},
		{"event", ContextWithEventID, EventIDFromContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//nolint:staticcheck // nil context is part of the contract
			ctx := tt.set(nil, "id-123")
			if got := tt.get(ctx); got != "id-123" {
				t.Errorf("got %q, want %q", got, "id-123")
			}
			if got := tt.get(context.Background()); got != "" {
				t.Errorf("expected empty id on bare context, got %q", got)
			}
		})
	}
}

func TestWithContext_AddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithSessionID(context.Background(), "sess-1")
	ctx = ContextWithEventID(ctx, "evt-9")

	l := WithContext(ctx, logger)
	l.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry[FieldSessionID] != "sess-1" {
		t.Errorf("session_id = %v, want sess-1", entry[FieldSessionID])
	}
	if entry[FieldEventID] != "evt-9" {
		t.Errorf("event_id = %v, want evt-9", entry[FieldEventID])
	}
	if _, ok := entry[FieldRequestID]; ok {
		t.Error("request_id must not be set when absent from context")
	}
}

func TestWithContext_NoFieldsReturnsSameLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	l := WithContext(context.Background(), logger)
	l.Info().Msg("plain")

	if bytes.Contains(buf.Bytes(), []byte(FieldSessionID)) {
		t.Errorf("unexpected correlation field in %s", buf.String())
	}
}
