// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lookup

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound      = errors.New("lookup: record not found")
	ErrUnavailable   = errors.New("lookup: service unreachable or transport failure")
	ErrUpstreamError = errors.New("lookup: unexpected upstream status")
	ErrBadResponse   = errors.New("lookup: invalid response body")
	ErrTimeout       = errors.New("lookup: request timed out")
)

// Error wraps a sentinel with the code and HTTP context of a failed lookup.
type Error struct {
	Sentinel error
	Code     string
	Status   int
	Body     string
	Err      error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v (code %q)", e.Sentinel, e.Code)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the sentinel and the nested cause, so a cancelled
// caller context stays visible to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// resultLabel maps a lookup error to its metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
