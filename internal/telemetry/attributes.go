// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Scan attributes
	ScanCodeKey      = "scan.code"
	ScanEventIDKey   = "scan.event_id"
	ScanSessionIDKey = "scan.session_id"

	// Lookup attributes
	LookupFoundKey  = "lookup.found"
	LookupCachedKey = "lookup.cached"
	LookupResultKey = "lookup.result"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// ScanAttributes creates attributes identifying a confirmed scan event.
func ScanAttributes(code, eventID, sessionID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ScanCodeKey, code)}
	if eventID != "" {
		attrs = append(attrs, attribute.String(ScanEventIDKey, eventID))
	}
	if sessionID != "" {
		attrs = append(attrs, attribute.String(ScanSessionIDKey, sessionID))
	}
	return attrs
}

// LookupAttributes creates attributes describing a lookup outcome.
func LookupAttributes(found, cached bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(LookupFoundKey, found),
		attribute.Bool(LookupCachedKey, cached),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
