// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldEventID   = "event_id"
	FieldRequestID = "request_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldReason    = "reason"
	FieldPID       = "pid"

	// Scan fields
	FieldCode       = "code"
	FieldFacingMode = "facing_mode"
	FieldDevice     = "device"
	FieldSource     = "source"
	FieldTick       = "tick"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldURL    = "url"
	FieldStatus = "status"
)
