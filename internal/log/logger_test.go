// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestConfigure_ServiceAndComponent(t *testing.T) {
	t.Cleanup(func() { Configure(Config{}) })

	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "codescan-test", Version: "v0.0.1"})

	l := WithComponent("scanner")
	l.Debug().Msg("tick")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["service"] != "codescan-test" {
		t.Errorf("service = %v", entry["service"])
	}
	if entry["version"] != "v0.0.1" {
		t.Errorf("version = %v", entry["version"])
	}
	if entry[FieldComponent] != "scanner" {
		t.Errorf("component = %v", entry[FieldComponent])
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("global level = %v, want debug", zerolog.GlobalLevel())
	}
}

func TestConfigure_RotatingFile(t *testing.T) {
	t.Cleanup(func() {
		_ = Close()
		Configure(Config{})
	})

	path := filepath.Join(t.TempDir(), "codescan.log")
	var buf bytes.Buffer
	Configure(Config{Output: &buf, File: path, MaxSizeMB: 1, MaxBackups: 1})

	L().Info().Msg("to file")
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !bytes.Contains(data, []byte("to file")) {
		t.Errorf("log file missing entry: %s", data)
	}
	if !bytes.Contains(buf.Bytes(), []byte("to file")) {
		t.Errorf("primary output missing entry: %s", buf.String())
	}
}
