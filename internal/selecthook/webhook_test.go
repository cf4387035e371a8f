// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package selecthook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ManuGH/codescan/internal/lookup"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPayload(t *testing.T) {
	at := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	body, err := Payload(lookup.Record{Code: "123", Body: []byte(`{"name":"Oat milk","price":1.99}`)}, at)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"code": "123",
		"selectedAt": "2025-05-04T10:00:00Z",
		"record": {"name":"Oat milk","price":1.99}
	}`, string(body))
}

func TestPayload_EmptyRecord(t *testing.T) {
	body, err := Payload(lookup.Record{Code: "9"}, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, gjson.Null, gjson.GetBytes(body, "record").Type)
}

func TestWebhook_Select(t *testing.T) {
	var got []byte
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		contentType = r.Header.Get("Content-Type")
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, time.Second, srv.Client(), zerolog.Nop())
	err := wh.Select(context.Background(), lookup.Record{Code: "77", Body: []byte(`{"id":7}`)})
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "77", gjson.GetBytes(got, "code").String())
	assert.Equal(t, int64(7), gjson.GetBytes(got, "record.id").Int())
}

func TestWebhook_SelectRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, time.Second, srv.Client(), zerolog.Nop())
	err := wh.Select(context.Background(), lookup.Record{Code: "1", Body: []byte(`{}`)})
	assert.ErrorContains(t, err, "HTTP 503")
}
